package user

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrTelegramIDExists   = errors.New("telegram id already registered")
)

type Repository interface {
	List() []User
	GetByID(id int) (User, error)
	GetByTelegramID(telegramID int64) (User, error)
	GetByEmail(email string) (User, error)
	Create(user User) (User, error)
	Update(id int, user User) (User, error)
	// AttachShop links a registered shop to the account and promotes it
	// to the seller role.
	AttachShop(userID int, shopID int, updatedAt string) (User, error)
}
