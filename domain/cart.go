package domain

// CartItem is one line of a shopping cart. Quantity is always positive for
// items held in a cart; zero or negative quantities only appear transiently
// in untrusted input and are normalized away.
type CartItem struct {
	ProductRef string `json:"product_ref"`
	Quantity   int    `json:"quantity"`
}

// Cart is an ordered sequence of items, unique by ProductRef
type Cart []CartItem

// Quantity returns the quantity held for ref, or 0 when absent
func (c Cart) Quantity(ref string) int {
	for _, it := range c {
		if it.ProductRef == ref {
			return it.Quantity
		}
	}
	return 0
}

// WithItem returns a copy of the cart with ref set to qty. A qty <= 0
// removes the line. Order of existing lines is preserved; a new line is
// appended.
func (c Cart) WithItem(ref string, qty int) Cart {
	out := make(Cart, 0, len(c)+1)
	found := false
	for _, it := range c {
		if it.ProductRef == ref {
			found = true
			if qty > 0 {
				out = append(out, CartItem{ProductRef: ref, Quantity: qty})
			}
			continue
		}
		out = append(out, it)
	}
	if !found && qty > 0 {
		out = append(out, CartItem{ProductRef: ref, Quantity: qty})
	}
	return out
}

// Normalize returns a copy with duplicate refs collapsed (quantities summed)
// and non-positive quantities dropped. Untrusted guest carts pass through
// here before any merge or checkout.
func (c Cart) Normalize() Cart {
	index := make(map[string]int, len(c))
	out := make(Cart, 0, len(c))
	for _, it := range c {
		if i, ok := index[it.ProductRef]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductRef] = len(out)
		out = append(out, it)
	}
	kept := out[:0]
	for _, it := range out {
		if it.Quantity > 0 {
			kept = append(kept, it)
		}
	}
	return kept
}

// IsEmpty reports whether the cart holds no purchasable lines
func (c Cart) IsEmpty() bool {
	for _, it := range c {
		if it.Quantity > 0 {
			return false
		}
	}
	return true
}

// MergeCarts reconciles a guest cart into an account cart: union by
// ProductRef with quantities summed where both sides hold the ref. The
// operation is pure and total; malformed quantities on either side are
// normalized to absent rather than rejected.
func MergeCarts(guest, account Cart) Cart {
	guest = guest.Normalize()
	merged := account.Normalize()
	for _, it := range guest {
		merged = merged.WithItem(it.ProductRef, merged.Quantity(it.ProductRef)+it.Quantity)
	}
	return merged
}
