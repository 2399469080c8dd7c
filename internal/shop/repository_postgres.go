package shop

import (
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	shopColumns = `"shopId", "ownerId", name, description, "cardNumber", "productsCount", "salesCount", "totalRevenue", "isApproved", "isActive", "pendingName", "pendingDescription", "createdAt", "updatedAt"`

	getShopByIDQuery = `
		SELECT ` + shopColumns + `
		FROM shops
		WHERE "shopId" = $1
	`
	getShopByOwnerQuery = `
		SELECT ` + shopColumns + `
		FROM shops
		WHERE "ownerId" = $1
	`
	insertShopQuery = `
		INSERT INTO shops ("ownerId", name, description, "cardNumber", "isApproved", "isActive", "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING "shopId"
	`
	setCardNumberQuery = `
		UPDATE shops SET "cardNumber" = $1, "updatedAt" = $2 WHERE "shopId" = $3
		RETURNING ` + shopColumns + `
	`
	setApprovedQuery = `
		UPDATE shops SET "isApproved" = $1, "updatedAt" = $2 WHERE "shopId" = $3
		RETURNING ` + shopColumns + `
	`
	submitEditQuery = `
		UPDATE shops SET "pendingName" = $1, "pendingDescription" = $2, "updatedAt" = $3 WHERE "shopId" = $4
		RETURNING ` + shopColumns + `
	`
	applyEditQuery = `
		UPDATE shops
		SET name = COALESCE("pendingName", name),
			description = COALESCE("pendingDescription", description),
			"pendingName" = NULL,
			"pendingDescription" = NULL,
			"updatedAt" = $1
		WHERE "shopId" = $2
		RETURNING ` + shopColumns + `
	`
	clearEditQuery = `
		UPDATE shops
		SET "pendingName" = NULL, "pendingDescription" = NULL, "updatedAt" = $1
		WHERE "shopId" = $2
		RETURNING ` + shopColumns + `
	`
	recordSaleQuery = `
		UPDATE shops
		SET "salesCount" = "salesCount" + 1,
			"totalRevenue" = "totalRevenue" + $1,
			"updatedAt" = $2
		WHERE "shopId" = $3
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanShop(s rowScanner) (Shop, error) {
	var sh Shop
	var card sql.NullString
	var pendingName, pendingDescription sql.NullString
	var createdAt, updatedAt sql.NullString
	err := s.Scan(&sh.ID, &sh.OwnerID, &sh.Name, &sh.Description, &card,
		&sh.ProductsCount, &sh.SalesCount, &sh.TotalRevenue,
		&sh.IsApproved, &sh.IsActive, &pendingName, &pendingDescription,
		&createdAt, &updatedAt)
	if err != nil {
		return Shop{}, err
	}
	sh.CardNumber = card.String
	if pendingName.Valid {
		sh.PendingName = &pendingName.String
	}
	if pendingDescription.Valid {
		sh.PendingDescription = &pendingDescription.String
	}
	sh.CreatedAt = createdAt.String
	sh.UpdatedAt = updatedAt.String
	return sh, nil
}

func (r *PostgresRepository) GetByID(id int) (Shop, error) {
	sh, err := scanShop(r.db.QueryRow(getShopByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return sh, nil
}

func (r *PostgresRepository) GetByOwnerID(ownerID int) (Shop, error) {
	sh, err := scanShop(r.db.QueryRow(getShopByOwnerQuery, ownerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return sh, nil
}

func (r *PostgresRepository) Create(s Shop) (Shop, error) {
	err := r.db.QueryRow(insertShopQuery,
		s.OwnerID, s.Name, s.Description, s.CardNumber, s.IsApproved, s.IsActive, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	if err != nil {
		return Shop{}, err
	}
	return s, nil
}

func (r *PostgresRepository) SetCardNumber(id int, cardNumber string, updatedAt string) (Shop, error) {
	sh, err := scanShop(r.db.QueryRow(setCardNumberQuery, cardNumber, updatedAt, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return sh, nil
}

func (r *PostgresRepository) SetApproved(id int, approved bool, updatedAt string) (Shop, error) {
	sh, err := scanShop(r.db.QueryRow(setApprovedQuery, approved, updatedAt, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return sh, nil
}

func (r *PostgresRepository) SubmitEdit(id int, name, description *string, updatedAt string) (Shop, error) {
	sh, err := scanShop(r.db.QueryRow(submitEditQuery, name, description, updatedAt, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return sh, nil
}

func (r *PostgresRepository) ApplyPendingEdit(id int, apply bool, updatedAt string) (Shop, error) {
	query := applyEditQuery
	if !apply {
		query = clearEditQuery
	}
	sh, err := scanShop(r.db.QueryRow(query, updatedAt, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return sh, nil
}

func (r *PostgresRepository) RecordSale(id int, amount float64, updatedAt string) error {
	res, err := r.db.Exec(recordSaleQuery, amount, updatedAt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
