package models

import "testing"

func ptr(v uint) *uint { return &v }

func TestNewLineRef(t *testing.T) {
	tests := []struct {
		name                 string
		product, combo, bowl *uint
		want                 LineRef
		wantErr              bool
	}{
		{name: "product", product: ptr(1), want: LineRef{Kind: LineItemProduct, ItemID: 1}},
		{name: "combo", combo: ptr(2), want: LineRef{Kind: LineItemCombo, ItemID: 2}},
		{name: "bowl", bowl: ptr(3), want: LineRef{Kind: LineItemBowl, ItemID: 3}},
		{name: "none", wantErr: true},
		{name: "two", product: ptr(1), bowl: ptr(3), wantErr: true},
		{name: "all", product: ptr(1), combo: ptr(2), bowl: ptr(3), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLineRef(tt.product, tt.combo, tt.bowl)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLineRef() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NewLineRef() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderLineRefsDeduplicates(t *testing.T) {
	order := Order{Items: []OrderItem{
		{LineRef: LineRef{Kind: LineItemProduct, ItemID: 1}},
		{LineRef: LineRef{Kind: LineItemBowl, ItemID: 1}},
		{LineRef: LineRef{Kind: LineItemProduct, ItemID: 1}},
	}}

	refs := order.LineRefs()
	if len(refs) != 2 {
		t.Fatalf("LineRefs() = %v, want 2 distinct refs", refs)
	}
	if refs[0].String() != "product:1" || refs[1].String() != "bowl:1" {
		t.Errorf("LineRefs() = %v", refs)
	}
}
