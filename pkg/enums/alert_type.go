package enums

import "fmt"

// AlertType identifies the stock condition an alert reports.
type AlertType string

const (
	AlertTypeLowStock   AlertType = "LOW_STOCK"
	AlertTypeOutOfStock AlertType = "OUT_OF_STOCK"
	// AlertTypeOverstock is reserved; nothing produces it today.
	AlertTypeOverstock AlertType = "OVERSTOCK"
)

var validAlertTypes = []AlertType{
	AlertTypeLowStock,
	AlertTypeOutOfStock,
	AlertTypeOverstock,
}

var alertTypeDisplay = map[AlertType]string{
	AlertTypeLowStock:   "Low Stock",
	AlertTypeOutOfStock: "Out of Stock",
	AlertTypeOverstock:  "Overstock",
}

// String implements fmt.Stringer.
func (a AlertType) String() string {
	return string(a)
}

// Display returns the operator-facing name.
func (a AlertType) Display() string {
	if label, ok := alertTypeDisplay[a]; ok {
		return label
	}
	return string(a)
}

// IsValid reports whether the value is a known AlertType.
func (a AlertType) IsValid() bool {
	for _, candidate := range validAlertTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAlertType converts raw input into an AlertType.
func ParseAlertType(value string) (AlertType, error) {
	for _, candidate := range validAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert type %q", value)
}
