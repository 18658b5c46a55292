package types

import "strings"

// Address is a shipping destination captured at checkout.
type Address struct {
	Line1   string `json:"line1" validate:"required"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
	Country string `json:"country,omitempty"`
}

// String flattens the address into a single shipping line.
func (a Address) String() string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	parts = append(parts, a.City, a.State, a.Pincode)
	if a.Country != "" {
		parts = append(parts, a.Country)
	}
	return strings.Join(parts, ", ")
}
