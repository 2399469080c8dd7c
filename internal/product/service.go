package product

import "errors"

var (
	ErrInvalidPrice = errors.New("price must be positive")
	ErrNoShop       = errors.New("seller has no shop")
)

// Service provides business logic for the product catalog.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(categoryID *int, limit int) ([]Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(categoryID, limit)
}

func (s *Service) GetByID(id int) (Product, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListByIDs(ids []int) ([]Product, error) {
	return s.repo.ListByIDs(ids)
}

func (s *Service) ListByShopID(shopID int) ([]Product, error) {
	return s.repo.ListByShopID(shopID)
}

// Create lists a new product for the given seller's shop. It starts
// unapproved and only enters the catalog after moderation.
func (s *Service) Create(p Product) (Product, error) {
	if p.Price <= 0 {
		return Product{}, ErrInvalidPrice
	}
	if p.ShopID == 0 {
		return Product{}, ErrNoShop
	}
	p.IsApproved = false
	p.IsActive = true
	return s.repo.Create(p)
}

func (s *Service) Approve(id int, updatedAt string) (Product, error) {
	return s.repo.SetApproved(id, true, updatedAt)
}
