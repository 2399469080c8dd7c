package user

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List() []User {
	return s.repo.List()
}

func (s *Service) GetByID(id int) (User, error) {
	return s.repo.GetByID(id)
}

func (s *Service) GetByTelegramID(telegramID int64) (User, error) {
	return s.repo.GetByTelegramID(telegramID)
}

func (s *Service) Register(user User) (User, error) {
	if user.Email != "" {
		if _, err := s.repo.GetByEmail(user.Email); err == nil {
			return User{}, ErrEmailExists
		} else if err != ErrNotFound {
			return User{}, err
		}
	}
	if user.TelegramID != 0 {
		if _, err := s.repo.GetByTelegramID(user.TelegramID); err == nil {
			return User{}, ErrTelegramIDExists
		} else if err != ErrNotFound {
			return User{}, err
		}
	}

	if user.Password != "" && !looksLikeBcrypt(user.Password) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		user.Password = string(hashed)
	}

	return s.repo.Create(user)
}

func (s *Service) Authenticate(email, password string) (User, error) {
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// AttachShop marks the user as a seller owning the given shop.
func (s *Service) AttachShop(userID int, shopID int, updatedAt string) (User, error) {
	return s.repo.AttachShop(userID, shopID, updatedAt)
}

func looksLikeBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
