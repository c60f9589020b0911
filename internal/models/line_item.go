package models

import "fmt"

// LineItemKind selects which catalog table a sold line refers to.
type LineItemKind string

const (
	LineItemProduct LineItemKind = "product"
	LineItemCombo   LineItemKind = "combo"
	LineItemBowl    LineItemKind = "bowl"
)

// Valid reports whether k is one of the known kinds.
func (k LineItemKind) Valid() bool {
	switch k {
	case LineItemProduct, LineItemCombo, LineItemBowl:
		return true
	}
	return false
}

// LineRef names exactly one product, combo or bowl.
type LineRef struct {
	Kind   LineItemKind `gorm:"column:item_kind;size:16;index:,composite:item_ref,priority:1" json:"kind"`
	ItemID uint         `gorm:"column:item_id;index:,composite:item_ref,priority:2" json:"itemId"`
}

func (r LineRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ItemID)
}

// NewLineRef builds a LineRef from the three optional ids used on the wire.
// Exactly one of them must be set.
func NewLineRef(productID, comboID, bowlID *uint) (LineRef, error) {
	var refs []LineRef
	if productID != nil {
		refs = append(refs, LineRef{Kind: LineItemProduct, ItemID: *productID})
	}
	if comboID != nil {
		refs = append(refs, LineRef{Kind: LineItemCombo, ItemID: *comboID})
	}
	if bowlID != nil {
		refs = append(refs, LineRef{Kind: LineItemBowl, ItemID: *bowlID})
	}
	if len(refs) != 1 {
		return LineRef{}, fmt.Errorf("line item must reference exactly one of productId, comboId, bowlId (got %d)", len(refs))
	}
	return refs[0], nil
}
