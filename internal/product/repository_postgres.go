package product

import (
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	productColumns = `"productID", "shopID", "sellerID", "categoryID", name, description, price, sizes, "isApproved", "isActive", "createdAt", "updatedAt"`

	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE "isApproved" = TRUE AND "isActive" = TRUE
		ORDER BY "productID" DESC
		LIMIT $1
	`
	listProductsByCategoryQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE "isApproved" = TRUE AND "isActive" = TRUE AND "categoryID" = $1
		ORDER BY "productID" DESC
		LIMIT $2
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE "productID" = $1
	`
	listProductsByIDsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE "productID" = ANY($1::int[])
		ORDER BY array_position($1::int[], "productID")
	`
	listProductsByShopQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE "shopID" = $1
		ORDER BY "productID" DESC
	`
	insertProductQuery = `
		INSERT INTO products ("shopID", "sellerID", "categoryID", name, description, price, sizes, "isApproved", "isActive", "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING "productID"
	`
	setProductApprovedQuery = `
		UPDATE products SET "isApproved" = $1, "updatedAt" = $2 WHERE "productID" = $3
		RETURNING ` + productColumns + `
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanProduct(s rowScanner) (Product, error) {
	var p Product
	var categoryID sql.NullInt64
	var description sql.NullString
	var sizesJSON []byte
	var createdAt, updatedAt sql.NullString
	err := s.Scan(&p.ID, &p.ShopID, &p.SellerID, &categoryID, &p.Name, &description,
		&p.Price, &sizesJSON, &p.IsApproved, &p.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return Product{}, err
	}
	if categoryID.Valid {
		id := int(categoryID.Int64)
		p.CategoryID = &id
	}
	p.Description = description.String
	if len(sizesJSON) > 0 {
		json.Unmarshal(sizesJSON, &p.Sizes)
	}
	p.CreatedAt = createdAt.String
	p.UpdatedAt = updatedAt.String
	return p, nil
}

func (r *PostgresRepository) List(categoryID *int, limit int) ([]Product, error) {
	if categoryID != nil {
		return r.list(listProductsByCategoryQuery, *categoryID, limit)
	}
	return r.list(listProductsQuery, limit)
}

func (r *PostgresRepository) GetByID(id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(getProductByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) ListByIDs(ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	return r.list(listProductsByIDsQuery, pq.Array(ids))
}

func (r *PostgresRepository) ListByShopID(shopID int) ([]Product, error) {
	return r.list(listProductsByShopQuery, shopID)
}

func (r *PostgresRepository) list(query string, args ...any) ([]Product, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PostgresRepository) Create(p Product) (Product, error) {
	sizesJSON, err := json.Marshal(p.Sizes)
	if err != nil {
		return Product{}, err
	}

	err = r.db.QueryRow(insertProductQuery,
		p.ShopID, p.SellerID, p.CategoryID, p.Name, p.Description, p.Price,
		sizesJSON, p.IsApproved, p.IsActive, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) SetApproved(id int, approved bool, updatedAt string) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(setProductApprovedQuery, approved, updatedAt, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}
