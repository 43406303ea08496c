package domain

import "time"

// RecordStatus toggles categories, attributes and attribute values on or off.
type RecordStatus string

const (
	RecordStatusActive   RecordStatus = "active"
	RecordStatusInactive RecordStatus = "inactive"
)

func (s RecordStatus) Valid() bool {
	return s == RecordStatusActive || s == RecordStatusInactive
}

// Category groups products.
type Category struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Status        RecordStatus `json:"status"`
	ProductsCount int          `json:"products_count"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
