package cart

import (
	"database/sql"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const cartProductsQuery = `
	SELECT p."productID", p.name, p.price, p."sellerID", p."shopID"
	FROM products p
	WHERE p."productID" = ANY($1::int[])
	ORDER BY array_position($1::int[], p."productID")
`

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) loadMap(userID int) (map[string]int, error) {
	var raw sql.NullString
	if err := r.db.QueryRow(`SELECT cart FROM users WHERE "userId" = $1`, userID).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	m := make(map[string]int)
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (r *PostgresRepository) saveMap(userID int, m map[string]int, updatedAt string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	res, err := r.db.Exec(`UPDATE users SET cart = $1, "updatedAt" = $2 WHERE "userId" = $3`, string(data), updatedAt, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) GetCart(userID int) ([]CartItem, error) {
	m, err := r.loadMap(userID)
	if err != nil {
		return nil, err
	}
	return r.enrich(m)
}

func (r *PostgresRepository) AddToCart(userID int, productID int, qty int, updatedAt string) ([]CartItem, error) {
	m, err := r.loadMap(userID)
	if err != nil {
		return nil, err
	}

	key := strconv.Itoa(productID)
	newQty := m[key] + qty
	if newQty <= 0 {
		delete(m, key)
	} else {
		m[key] = newQty
	}

	if err := r.saveMap(userID, m, updatedAt); err != nil {
		return nil, err
	}
	return r.enrich(m)
}

func (r *PostgresRepository) ClearCart(userID int, updatedAt string) error {
	return r.saveMap(userID, map[string]int{}, updatedAt)
}

// enrich joins the quantity map against the product table.
func (r *PostgresRepository) enrich(m map[string]int) ([]CartItem, error) {
	if len(m) == 0 {
		return []CartItem{}, nil
	}

	ids := make([]int, 0, len(m))
	for key := range m {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	rows, err := r.db.Query(cartProductsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]CartItem, 0, len(ids))
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.SellerID, &it.ShopID); err != nil {
			return nil, err
		}
		it.Quantity = m[strconv.Itoa(it.ProductID)]
		items = append(items, it)
	}
	return items, rows.Err()
}
