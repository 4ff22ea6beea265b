package enums

// StockStatus is the derived availability bucket of an item.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "IN_STOCK"
	StockStatusLowStock   StockStatus = "LOW_STOCK"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
)

var stockStatusDisplay = map[StockStatus]string{
	StockStatusInStock:    "In Stock",
	StockStatusLowStock:   "Low Stock",
	StockStatusOutOfStock: "Out of Stock",
}

// StockStatusFor classifies a quantity against its reorder level. Out of
// stock takes precedence over low stock.
func StockStatusFor(quantity, reorderLevel int) StockStatus {
	switch {
	case quantity == 0:
		return StockStatusOutOfStock
	case quantity <= reorderLevel:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// Display returns the operator-facing name.
func (s StockStatus) Display() string {
	if label, ok := stockStatusDisplay[s]; ok {
		return label
	}
	return string(s)
}

// AlertType returns the alert that should be active for the status, if any.
func (s StockStatus) AlertType() (AlertType, bool) {
	switch s {
	case StockStatusOutOfStock:
		return AlertTypeOutOfStock, true
	case StockStatusLowStock:
		return AlertTypeLowStock, true
	default:
		return "", false
	}
}
