package product

import "errors"

var ErrNotFound = errors.New("product not found")

type Repository interface {
	// List returns approved, active products, optionally filtered by
	// category.
	List(categoryID *int, limit int) ([]Product, error)
	GetByID(id int) (Product, error)
	// ListByIDs returns products in the same order as the ids argument.
	// An empty ids slice returns an empty result without a query.
	ListByIDs(ids []int) ([]Product, error)
	ListByShopID(shopID int) ([]Product, error)
	Create(p Product) (Product, error)
	SetApproved(id int, approved bool, updatedAt string) (Product, error)
}
