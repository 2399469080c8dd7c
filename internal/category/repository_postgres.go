package category

import (
	"database/sql"
	"strings"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(limit int) ([]CategoryItem, error) {
	rows, err := r.db.Query(`SELECT "categoryID", "categoryName" FROM category ORDER BY "categoryName" LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]CategoryItem, 0)
	for rows.Next() {
		var it CategoryItem
		if err := rows.Scan(&it.CategoryID, &it.CategoryName); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) Create(name string) (CategoryItem, error) {
	it := CategoryItem{CategoryName: name}
	err := r.db.QueryRow(`INSERT INTO category ("categoryName") VALUES ($1) RETURNING "categoryID"`, name).Scan(&it.CategoryID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return CategoryItem{}, ErrNameExists
		}
		return CategoryItem{}, err
	}
	return it, nil
}
