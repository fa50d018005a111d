package category

import "github.com/kailas-cloud/sitekit/internal/domain/search/filter"

// Category is a search dropdown option. Values are matched exactly.
type Category string

// Supported search categories.
const (
	SKUs            Category = "Search Item by SKUs"
	Description     Category = "Search Item by Material Description"
	ManufacturerPNs Category = "Search by Manufacturer Part Nos."
)

// Catalog item field names targeted by the categories.
const (
	FieldSKUs            = "skUs"
	FieldDescription     = "itemDetailedDescription"
	FieldManufacturerPNs = "mfgPartNos"
)

// ListSeparator splits the SKU and manufacturer part number lists.
const ListSeparator = ","

var fields = map[Category]string{
	SKUs:            FieldSKUs,
	Description:     FieldDescription,
	ManufacturerPNs: FieldManufacturerPNs,
}

// All returns the categories in dropdown order.
func All() []Category {
	return []Category{SKUs, Description, ManufacturerPNs}
}

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	_, ok := fields[c]
	return ok
}

// Field returns the item field searched by the category.
func (c Category) Field() (string, bool) {
	f, ok := fields[c]
	return f, ok
}

// Predicate builds the contains predicate for the category and search text.
func (c Category) Predicate(text string) (filter.Predicate, bool) {
	f, ok := fields[c]
	if !ok {
		return filter.Predicate{}, false
	}
	var (
		p   filter.Predicate
		err error
	)
	if IsListField(f) {
		p, err = filter.ContainsAny(f, ListSeparator, text)
	} else {
		p, err = filter.Contains(f, text)
	}
	if err != nil {
		return filter.Predicate{}, false
	}
	return p, true
}

// IsListField reports whether the field holds a ListSeparator-separated list.
func IsListField(field string) bool {
	return field == FieldSKUs || field == FieldManufacturerPNs
}
