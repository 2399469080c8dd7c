package shop

// Shop is a seller's storefront. CardNumber is the payout destination;
// a shop without one cannot receive settlements.
type Shop struct {
	ID          int    `json:"shopId"`
	OwnerID     int    `json:"ownerId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CardNumber  string `json:"cardNumber,omitempty"`

	ProductsCount int     `json:"productsCount"`
	SalesCount    int     `json:"salesCount"`
	TotalRevenue  float64 `json:"totalRevenue"`

	IsApproved bool `json:"isApproved"`
	IsActive   bool `json:"isActive"`

	// Edits awaiting moderation. Applied on admin approval, cleared on
	// rejection.
	PendingName        *string `json:"pendingName,omitempty"`
	PendingDescription *string `json:"pendingDescription,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}
