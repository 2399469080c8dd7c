package shop

import (
	"errors"
	"strings"
)

var ErrInvalidCard = errors.New("card number must be 13-19 digits")

// Service provides business logic for shops.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(id int) (Shop, error) {
	return s.repo.GetByID(id)
}

func (s *Service) GetByOwnerID(ownerID int) (Shop, error) {
	return s.repo.GetByOwnerID(ownerID)
}

// Register creates a shop for a seller. New shops stay unapproved until
// an administrator reviews them.
func (s *Service) Register(ownerID int, name, description, cardNumber string, now string) (Shop, error) {
	if _, err := s.repo.GetByOwnerID(ownerID); err == nil {
		return Shop{}, ErrOwnerExists
	} else if err != ErrNotFound {
		return Shop{}, err
	}

	if cardNumber != "" && !validCardNumber(cardNumber) {
		return Shop{}, ErrInvalidCard
	}

	return s.repo.Create(Shop{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		CardNumber:  cardNumber,
		IsApproved:  false,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *Service) UpdateCard(ownerID int, cardNumber string, now string) (Shop, error) {
	if !validCardNumber(cardNumber) {
		return Shop{}, ErrInvalidCard
	}
	sh, err := s.repo.GetByOwnerID(ownerID)
	if err != nil {
		return Shop{}, err
	}
	return s.repo.SetCardNumber(sh.ID, cardNumber, now)
}

func (s *Service) Approve(id int, now string) (Shop, error) {
	return s.repo.SetApproved(id, true, now)
}

// SubmitEdit queues a name/description change for admin review.
func (s *Service) SubmitEdit(ownerID int, name, description *string, now string) (Shop, error) {
	sh, err := s.repo.GetByOwnerID(ownerID)
	if err != nil {
		return Shop{}, err
	}
	return s.repo.SubmitEdit(sh.ID, name, description, now)
}

func (s *Service) ResolveEdit(id int, apply bool, now string) (Shop, error) {
	return s.repo.ApplyPendingEdit(id, apply, now)
}

func (s *Service) RecordSale(id int, amount float64, now string) error {
	return s.repo.RecordSale(id, amount, now)
}

func validCardNumber(card string) bool {
	if len(card) < 13 || len(card) > 19 {
		return false
	}
	for _, r := range card {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
