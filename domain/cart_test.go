package domain

import (
	"reflect"
	"testing"
)

func TestCart_WithItem(t *testing.T) {
	tests := []struct {
		name     string
		cart     Cart
		ref      string
		qty      int
		expected Cart
	}{
		{
			name:     "append new line",
			cart:     Cart{{ProductRef: "sku-1", Quantity: 2}},
			ref:      "sku-2",
			qty:      1,
			expected: Cart{{ProductRef: "sku-1", Quantity: 2}, {ProductRef: "sku-2", Quantity: 1}},
		},
		{
			name:     "replace existing line in place",
			cart:     Cart{{ProductRef: "sku-1", Quantity: 2}, {ProductRef: "sku-2", Quantity: 1}},
			ref:      "sku-1",
			qty:      5,
			expected: Cart{{ProductRef: "sku-1", Quantity: 5}, {ProductRef: "sku-2", Quantity: 1}},
		},
		{
			name:     "zero quantity removes the line",
			cart:     Cart{{ProductRef: "sku-1", Quantity: 2}, {ProductRef: "sku-2", Quantity: 1}},
			ref:      "sku-1",
			qty:      0,
			expected: Cart{{ProductRef: "sku-2", Quantity: 1}},
		},
		{
			name:     "negative quantity on absent ref is a no-op",
			cart:     Cart{{ProductRef: "sku-1", Quantity: 2}},
			ref:      "sku-9",
			qty:      -3,
			expected: Cart{{ProductRef: "sku-1", Quantity: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cart.WithItem(tt.ref, tt.qty)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCart_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		cart     Cart
		expected Cart
	}{
		{
			name:     "duplicates collapse with quantities summed",
			cart:     Cart{{ProductRef: "sku-1", Quantity: 2}, {ProductRef: "sku-2", Quantity: 1}, {ProductRef: "sku-1", Quantity: 3}},
			expected: Cart{{ProductRef: "sku-1", Quantity: 5}, {ProductRef: "sku-2", Quantity: 1}},
		},
		{
			name:     "non-positive quantities are dropped",
			cart:     Cart{{ProductRef: "sku-1", Quantity: 0}, {ProductRef: "sku-2", Quantity: -4}, {ProductRef: "sku-3", Quantity: 1}},
			expected: Cart{{ProductRef: "sku-3", Quantity: 1}},
		},
		{
			name:     "already normal cart is unchanged",
			cart:     Cart{{ProductRef: "sku-1", Quantity: 1}, {ProductRef: "sku-2", Quantity: 2}},
			expected: Cart{{ProductRef: "sku-1", Quantity: 1}, {ProductRef: "sku-2", Quantity: 2}},
		},
		{
			name:     "empty stays empty",
			cart:     Cart{},
			expected: Cart{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cart.Normalize()
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestMergeCarts(t *testing.T) {
	tests := []struct {
		name     string
		guest    Cart
		account  Cart
		expected Cart
	}{
		{
			name:     "overlapping refs sum quantities",
			guest:    Cart{{ProductRef: "sku-1", Quantity: 2}},
			account:  Cart{{ProductRef: "sku-1", Quantity: 1}, {ProductRef: "sku-2", Quantity: 4}},
			expected: Cart{{ProductRef: "sku-1", Quantity: 3}, {ProductRef: "sku-2", Quantity: 4}},
		},
		{
			name:     "disjoint refs union",
			guest:    Cart{{ProductRef: "sku-3", Quantity: 1}},
			account:  Cart{{ProductRef: "sku-1", Quantity: 2}},
			expected: Cart{{ProductRef: "sku-1", Quantity: 2}, {ProductRef: "sku-3", Quantity: 1}},
		},
		{
			name:     "empty guest leaves account untouched",
			guest:    Cart{},
			account:  Cart{{ProductRef: "sku-1", Quantity: 2}},
			expected: Cart{{ProductRef: "sku-1", Quantity: 2}},
		},
		{
			name:     "empty account receives guest cart",
			guest:    Cart{{ProductRef: "sku-1", Quantity: 2}},
			account:  Cart{},
			expected: Cart{{ProductRef: "sku-1", Quantity: 2}},
		},
		{
			name:     "malformed sides are normalized before merging",
			guest:    Cart{{ProductRef: "sku-1", Quantity: 1}, {ProductRef: "sku-1", Quantity: 1}, {ProductRef: "sku-2", Quantity: -5}},
			account:  Cart{{ProductRef: "sku-1", Quantity: 0}},
			expected: Cart{{ProductRef: "sku-1", Quantity: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeCarts(tt.guest, tt.account)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// Merging must never lose quantity: for every ref, the merged quantity
// equals the sum of both sides' normalized quantities.
func TestMergeCarts_NoLoss(t *testing.T) {
	guest := Cart{
		{ProductRef: "sku-1", Quantity: 2},
		{ProductRef: "sku-2", Quantity: 7},
		{ProductRef: "sku-1", Quantity: 1},
	}
	account := Cart{
		{ProductRef: "sku-2", Quantity: 3},
		{ProductRef: "sku-3", Quantity: 5},
	}

	merged := MergeCarts(guest, account)

	gn, an := guest.Normalize(), account.Normalize()
	for _, ref := range []string{"sku-1", "sku-2", "sku-3"} {
		want := gn.Quantity(ref) + an.Quantity(ref)
		if got := merged.Quantity(ref); got != want {
			t.Errorf("ref %s: expected quantity %d, got %d", ref, want, got)
		}
	}
}

func TestCart_IsEmpty(t *testing.T) {
	if !(Cart{}).IsEmpty() {
		t.Error("expected empty cart to be empty")
	}
	if !(Cart{{ProductRef: "sku-1", Quantity: 0}}).IsEmpty() {
		t.Error("expected cart with only zero quantities to be empty")
	}
	if (Cart{{ProductRef: "sku-1", Quantity: 1}}).IsEmpty() {
		t.Error("expected cart with a positive line to be non-empty")
	}
}
