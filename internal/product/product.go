package product

// Product is a seller's listing. New products stay hidden from the
// catalog until an administrator approves them.
type Product struct {
	ID          int     `json:"productId"`
	ShopID      int     `json:"shopId"`
	SellerID    int     `json:"sellerId"`
	CategoryID  *int    `json:"categoryId,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Sizes       []string `json:"sizes,omitempty"`
	IsApproved  bool    `json:"isApproved"`
	IsActive    bool    `json:"isActive"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	UpdatedAt   string  `json:"updatedAt,omitempty"`
}
