package model

import "time"

// Item is one artwork tracked by the vending machine.
type Item struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Caption      string            `json:"caption"`
	ImageDataURL string            `json:"imageDataUrl,omitempty"`
	Story        string            `json:"story"`
	Artist       string            `json:"artist,omitempty"`
	Translations map[string]string `json:"translations"`
	Price        string            `json:"price"`
	QR           string            `json:"qr"`
	Status       string            `json:"status"`
	Placed       bool              `json:"placed"`
	Sold         bool              `json:"sold"`
	CreatedAt    string            `json:"createdAt"`
	SoldAt       string            `json:"soldAt,omitempty"`
}

// Item statuses.
const (
	ItemStatusDraft = "draft"
	ItemStatusReady = "ready"
	ItemStatusSold  = "sold"
)

// Story languages.
const (
	LangEnglish = "en"
	LangHindi   = "hi"
	LangTelugu  = "te"
)

// Languages lists the translation keys every item carries.
var Languages = []string{LangEnglish, LangHindi, LangTelugu}

// TimeFormat is the layout used for CreatedAt and SoldAt.
const TimeFormat = time.RFC3339

// DeriveStatus returns the status implied by the lifecycle flags.
func DeriveStatus(placed, sold bool) string {
	switch {
	case sold:
		return ItemStatusSold
	case placed:
		return ItemStatusReady
	default:
		return ItemStatusDraft
	}
}

// Normalize re-derives Status from the flags. A sold item is always placed.
func (it *Item) Normalize() {
	if it.Sold {
		it.Placed = true
	}
	it.Status = DeriveStatus(it.Placed, it.Sold)
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	if it.Translations != nil {
		tr := make(map[string]string, len(it.Translations))
		for k, v := range it.Translations {
			tr[k] = v
		}
		it.Translations = tr
	}
	return it
}

// Patch is a partial update of an item. Nil fields are left untouched.
type Patch struct {
	Title   *string
	Caption *string
	Placed  *bool
	Sold    *bool
	SoldAt  *string
}

// Apply merges the patch into the item and re-derives its status.
// A sale is final: Sold is never cleared and SoldAt is only written once.
func (p Patch) Apply(it *Item) {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Caption != nil {
		it.Caption = *p.Caption
	}
	if p.Placed != nil {
		it.Placed = *p.Placed
	}
	if p.Sold != nil && !it.Sold {
		it.Sold = *p.Sold
	}
	if p.SoldAt != nil && it.SoldAt == "" {
		it.SoldAt = *p.SoldAt
	}
	it.Normalize()
}
