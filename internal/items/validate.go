package items

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/inventory-backend/pkg/db/models"
)

const (
	minNameLength     = 2
	maxNameLength     = 200
	maxCategoryLength = 100
	maxSupplierLength = 200
)

// maxPrice is the largest value numeric(10,2) can hold.
var maxPrice = decimal.RequireFromString("99999999.99")

type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func normalizeName(name string, errs fieldErrors) string {
	trimmed := strings.TrimSpace(name)
	switch n := utf8.RuneCountInString(trimmed); {
	case n == 0:
		errs.add("name", "is required")
	case n < minNameLength:
		errs.add("name", "must be at least 2 characters")
	case n > maxNameLength:
		errs.add("name", "must be at most 200 characters")
	}
	return trimmed
}

func checkPrice(price decimal.Decimal, errs fieldErrors) {
	switch {
	case price.IsNegative():
		errs.add("price", "must be greater than or equal to 0")
	case !price.Equal(price.Round(2)):
		errs.add("price", "must have at most 2 decimal places")
	case price.GreaterThan(maxPrice):
		errs.add("price", "must be at most 99999999.99")
	}
}

func checkCount(field string, value int, errs fieldErrors) {
	switch {
	case value < 0:
		errs.add(field, "must be greater than or equal to 0")
	case value > models.MaxQuantity:
		errs.add(field, "must be at most 2147483647")
	}
}

// normalizeCategory trims the category and falls back to def when blank.
func normalizeCategory(category, def string, errs fieldErrors) string {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return def
	}
	if utf8.RuneCountInString(trimmed) > maxCategoryLength {
		errs.add("category", "must be at most 100 characters")
	}
	return trimmed
}

// normalizeSupplier trims the supplier; blank becomes nil.
func normalizeSupplier(supplier *string, errs fieldErrors) *string {
	if supplier == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*supplier)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(trimmed) > maxSupplierLength {
		errs.add("supplier", "must be at most 200 characters")
	}
	return &trimmed
}
