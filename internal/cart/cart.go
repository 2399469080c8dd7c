package cart

import "errors"

var ErrNotFound = errors.New("cart owner not found")

// CartItem is an entry in a user's cart enriched with the live product
// snapshot so clients can render price and name.
type CartItem struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	SellerID  int     `json:"sellerId"`
	ShopID    int     `json:"shopId"`
}

// Total returns the cart's gross amount.
func Total(items []CartItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}
