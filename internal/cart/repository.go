package cart

// Repository persists cart contents as a productID -> quantity map on
// the user row.
type Repository interface {
	GetCart(userID int) ([]CartItem, error)
	// AddToCart adjusts the quantity of productID by qty (negative
	// values remove). Quantities at or below zero drop the entry.
	AddToCart(userID int, productID int, qty int, updatedAt string) ([]CartItem, error)
	ClearCart(userID int, updatedAt string) error
}
