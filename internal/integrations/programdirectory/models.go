package programdirectory

// Program модель образовательной программы из внешнего каталога программ.
// Планировщик только читает эти данные; title и цена денормализуются
// в бронирование в момент создания.
type Program struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	DurationMinutes int      `json:"durationMinutes"`
	MaxStudents     int      `json:"maxStudents"`
	PricePerStudent float64  `json:"pricePerStudent"`
	GradeLevels     []string `json:"gradeLevels"`
	IsActive        bool     `json:"isActive"`
	OperatorIDs     []int64  `json:"operatorIds"`
}

// HasOperator проверяет, что пользователь является оператором программы
func (p *Program) HasOperator(userID int64) bool {
	for _, id := range p.OperatorIDs {
		if id == userID {
			return true
		}
	}
	return false
}
