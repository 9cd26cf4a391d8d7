package bulk_set_availability

// BulkSetAvailabilityRequest HTTP request model
type BulkSetAvailabilityRequest struct {
	SlotIDs     []int64 `json:"slotIds"`
	IsAvailable bool    `json:"isAvailable"`
}
