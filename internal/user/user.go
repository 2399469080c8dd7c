package user

// User is a marketplace account. A single Telegram identity starts as a
// buyer and becomes a seller once their shop is registered.
type User struct {
	ID         int    `json:"userId"`
	TelegramID int64  `json:"telegramId"`
	Email      string `json:"email,omitempty"`
	Password   string `json:"password,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	Username   string `json:"username,omitempty"`
	Role       string `json:"role"`
	ShopID     *int   `json:"shopId,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

const (
	RoleBuyer  = "BUYER"
	RoleSeller = "SELLER"
	RoleAdmin  = "ADMIN"
)

// IsSeller reports whether the account has a registered shop.
func (u User) IsSeller() bool {
	return u.Role == RoleSeller && u.ShopID != nil
}
