package domain

import "time"

// AddressType classifies a shipping address.
type AddressType string

const (
	AddressTypeHome   AddressType = "Home"
	AddressTypeOffice AddressType = "Office"
	AddressTypeOther  AddressType = "Other"
)

// Valid reports whether t is one of the known address types.
func (t AddressType) Valid() bool {
	switch t {
	case AddressTypeHome, AddressTypeOffice, AddressTypeOther:
		return true
	}
	return false
}

// Address is a user's shipping address. Among the addresses of one user
// exactly one has IsPrimary set.
type Address struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	AddressLine string      `json:"address_line"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	PostalCode  string      `json:"postal_code"`
	Country     string      `json:"country"`
	PhoneNumber string      `json:"phone_number"`
	AddressType AddressType `json:"address_type"`
	IsPrimary   bool        `json:"is_primary"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// DefaultCountry is used when an address is created without a country.
const DefaultCountry = "Indonesia"

// CountPrimaries returns how many of addrs are flagged primary.
func CountPrimaries(addrs []Address) int {
	n := 0
	for _, a := range addrs {
		if a.IsPrimary {
			n++
		}
	}
	return n
}
