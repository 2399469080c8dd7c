package user

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
	userColumns = `"userId", "telegramId", email, password, "firstName", username, role, "shopId", "createdAt", "updatedAt"`

	listUsersQuery = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY "userId"
	`
	getUserByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE "userId" = $1
	`
	getUserByTelegramIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE "telegramId" = $1
	`
	getUserByEmailQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	insertUserQuery = `
		INSERT INTO users ("telegramId", email, password, "firstName", username, role, "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING "userId"
	`
	updateUserQuery = `
		UPDATE users
		SET email = $1,
			"firstName" = $2,
			username = $3,
			role = $4,
			"updatedAt" = $5
		WHERE "userId" = $6
	`
	attachShopQuery = `
		UPDATE users
		SET "shopId" = $1,
			role = $2,
			"updatedAt" = $3
		WHERE "userId" = $4
		RETURNING ` + userColumns + `
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(s rowScanner) (User, error) {
	var u User
	var email, password, firstName, username sql.NullString
	var shopID sql.NullInt64
	var createdAt, updatedAt sql.NullString
	if err := s.Scan(&u.ID, &u.TelegramID, &email, &password, &firstName, &username, &u.Role, &shopID, &createdAt, &updatedAt); err != nil {
		return User{}, err
	}
	u.Email = email.String
	u.Password = password.String
	u.FirstName = firstName.String
	u.Username = username.String
	if shopID.Valid {
		id := int(shopID.Int64)
		u.ShopID = &id
	}
	u.CreatedAt = createdAt.String
	u.UpdatedAt = updatedAt.String
	return u, nil
}

func (r *PostgresRepository) List() []User {
	rows, err := r.db.Query(listUsersQuery)
	if err != nil {
		return []User{}
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			continue
		}
		users = append(users, u)
	}
	return users
}

func (r *PostgresRepository) GetByID(id int) (User, error) {
	u, err := scanUser(r.db.QueryRow(getUserByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) GetByTelegramID(telegramID int64) (User, error) {
	u, err := scanUser(r.db.QueryRow(getUserByTelegramIDQuery, telegramID))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(email string) (User, error) {
	u, err := scanUser(r.db.QueryRow(getUserByEmailQuery, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(u User) (User, error) {
	if u.Role == "" {
		u.Role = RoleBuyer
	}
	err := r.db.QueryRow(insertUserQuery,
		u.TelegramID, u.Email, u.Password, u.FirstName, u.Username, u.Role, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Update(id int, u User) (User, error) {
	res, err := r.db.Exec(updateUserQuery, u.Email, u.FirstName, u.Username, u.Role, u.UpdatedAt, id)
	if err != nil {
		return User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return User{}, ErrNotFound
	}
	return r.GetByID(id)
}

func (r *PostgresRepository) AttachShop(userID int, shopID int, updatedAt string) (User, error) {
	u, err := scanUser(r.db.QueryRow(attachShopQuery, shopID, RoleSeller, updatedAt, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}
