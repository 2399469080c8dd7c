package order

// Service provides read-side order operations. Writes go through the
// checkout flow and the settlement engine.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(id int) (Order, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListByBuyerID(buyerID int) ([]Order, error) {
	return s.repo.ListByBuyerID(buyerID)
}

func (s *Service) ListAwaitingApproval() ([]Order, error) {
	return s.repo.ListAwaitingApproval()
}
