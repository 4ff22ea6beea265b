package enums

import "fmt"

// ReportType selects one of the inventory report layouts.
type ReportType string

const (
	ReportTypeStockLevels      ReportType = "stock_levels"
	ReportTypeLowStock         ReportType = "low_stock"
	ReportTypeCategorySummary  ReportType = "category_summary"
	ReportTypeSupplierAnalysis ReportType = "supplier_analysis"
	ReportTypeValueAnalysis    ReportType = "value_analysis"
	ReportTypeAllItems         ReportType = "all_items"
)

var validReportTypes = []ReportType{
	ReportTypeStockLevels,
	ReportTypeLowStock,
	ReportTypeCategorySummary,
	ReportTypeSupplierAnalysis,
	ReportTypeValueAnalysis,
	ReportTypeAllItems,
}

var reportTitles = map[ReportType]string{
	ReportTypeStockLevels:      "Stock Levels Report",
	ReportTypeLowStock:         "Low Stock Alert Report",
	ReportTypeCategorySummary:  "Category Summary Report",
	ReportTypeSupplierAnalysis: "Supplier Analysis Report",
	ReportTypeValueAnalysis:    "Value Analysis Report",
	ReportTypeAllItems:         "All Items Report",
}

// Title returns the report heading.
func (r ReportType) Title() string {
	return reportTitles[r]
}

// IsValid reports whether the value is a known ReportType.
func (r ReportType) IsValid() bool {
	for _, candidate := range validReportTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportType converts raw input into a ReportType. Empty input selects
// the stock levels report.
func ParseReportType(value string) (ReportType, error) {
	if value == "" {
		return ReportTypeStockLevels, nil
	}
	for _, candidate := range validReportTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report type %q", value)
}
