package enums

import "fmt"

// LineItemStatus tracks allocation outcome per order line. Lines only land
// in the skipped state when the buyer asked for a partial order.
type LineItemStatus string

const (
	LineItemStatusAllocated LineItemStatus = "allocated"
	LineItemStatusSkipped   LineItemStatus = "skipped"
	LineItemStatusReleased  LineItemStatus = "released"
)

var validLineItemStatuses = []LineItemStatus{
	LineItemStatusAllocated,
	LineItemStatusSkipped,
	LineItemStatusReleased,
}

// String implements fmt.Stringer.
func (l LineItemStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LineItemStatus.
func (l LineItemStatus) IsValid() bool {
	for _, candidate := range validLineItemStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLineItemStatus converts raw input into a LineItemStatus.
func ParseLineItemStatus(value string) (LineItemStatus, error) {
	for _, candidate := range validLineItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item status %q", value)
}
