package cancel_booking

// Request модель запроса на отмену бронирования
type Request struct {
	BookingID int64  // ID бронирования
	ActorID   int64  // ID пользователя (владелец или оператор программы)
	Reason    string // Причина отмены (обязательна)
}

// Response модель ответа с отмененным бронированием
type Response struct {
	ID                 int64  `json:"id"`
	Reference          string `json:"reference"`
	Status             string `json:"status"`
	CancellationReason string `json:"cancellationReason"`
	ReleasedSlotID     *int64 `json:"releasedSlotId,omitempty"`
}
