package catalog

import (
	"fmt"

	"github.com/kailas-cloud/sitekit/internal/domain"
	"github.com/kailas-cloud/sitekit/internal/domain/search/category"
)

// FieldTitle is the item display title field.
const FieldTitle = "title"

// MaxIDLength bounds item identifiers used as storage keys.
const MaxIDLength = 128

// Item is a catalog record shown in the bound result set.
type Item struct {
	id          string
	title       string
	skus        string
	description string
	mfgPartNos  string
}

// New validates and creates an Item.
func New(id, title, skus, description, mfgPartNos string) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("%w: id is required", domain.ErrInvalidItem)
	}
	if len(id) > MaxIDLength {
		return Item{}, fmt.Errorf("%w: id longer than %d characters", domain.ErrInvalidItem, MaxIDLength)
	}
	return Item{
		id:          id,
		title:       title,
		skus:        skus,
		description: description,
		mfgPartNos:  mfgPartNos,
	}, nil
}

// FromFields rebuilds an Item from its stored field map.
func FromFields(id string, fields map[string]string) (Item, error) {
	return New(
		id,
		fields[FieldTitle],
		fields[category.FieldSKUs],
		fields[category.FieldDescription],
		fields[category.FieldManufacturerPNs],
	)
}

// ID returns the item identifier.
func (i Item) ID() string { return i.id }

// Title returns the display title.
func (i Item) Title() string { return i.title }

// SKUs returns the comma separated SKU list.
func (i Item) SKUs() string { return i.skus }

// Description returns the detailed material description.
func (i Item) Description() string { return i.description }

// MfgPartNos returns the comma separated manufacturer part numbers.
func (i Item) MfgPartNos() string { return i.mfgPartNos }

// Fields returns the searchable fields keyed by their stored names.
func (i Item) Fields() map[string]string {
	return map[string]string{
		FieldTitle:                    i.title,
		category.FieldSKUs:            i.skus,
		category.FieldDescription:     i.description,
		category.FieldManufacturerPNs: i.mfgPartNos,
	}
}
