package order

import (
	"database/sql"
	"encoding/json"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	orderColumns = `"orderID", "orderNumber", "buyerID", items, "totalAmount", "commissionAmount", "sellerAmount", "commissionPercent", "paymentID", "paymentURL", "paymentStatus", status, "adminApproved", "approvedAt", "approvedBy", "rejectedAt", "rejectionReason", "payoutID", "payoutStatus", "paidAt", "completedAt", "createdAt", "updatedAt"`

	insertOrderQuery = `
		INSERT INTO orders ("orderNumber", "buyerID", items, "totalAmount", "commissionAmount", "sellerAmount", "commissionPercent", "paymentID", "paymentURL", "paymentStatus", status, "payoutStatus", "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING "orderID"
	`
	getOrderByIDQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE "orderID" = $1
	`
	getOrderByPaymentIDQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE "paymentID" = $1
	`
	listOrdersByBuyerQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE "buyerID" = $1
		ORDER BY "orderID" DESC
	`
	listAwaitingApprovalQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = 'paid' AND "adminApproved" = FALSE AND "rejectedAt" IS NULL
		ORDER BY "orderID"
	`
	markPaidQuery = `
		UPDATE orders
		SET status = 'paid', "paymentStatus" = 'succeeded', "paidAt" = $1, "updatedAt" = $1
		WHERE "orderID" = $2 AND status = 'pending'
	`
	setPaymentStatusQuery = `
		UPDATE orders
		SET "paymentStatus" = $1, "updatedAt" = $2
		WHERE "orderID" = $3
	`
	// The WHERE guard makes the claim a compare-and-swap: of two
	// concurrent approvals only one sees RowsAffected == 1.
	claimQuery = `
		UPDATE orders
		SET status = 'processing', "updatedAt" = $1
		WHERE "orderID" = $2 AND status = 'paid' AND "adminApproved" = FALSE AND "rejectedAt" IS NULL
	`
	completeSettlementQuery = `
		UPDATE orders
		SET "adminApproved" = TRUE,
			"approvedAt" = $1,
			"approvedBy" = $2,
			"payoutID" = $3,
			"payoutStatus" = 'succeeded',
			status = 'completed',
			"completedAt" = $1,
			"updatedAt" = $1
		WHERE "orderID" = $4 AND status = 'processing'
		RETURNING ` + orderColumns + `
	`
	rejectOrderQuery = `
		UPDATE orders
		SET "adminApproved" = FALSE,
			"rejectedAt" = $1,
			"approvedBy" = $2,
			"rejectionReason" = $3,
			status = 'cancelled',
			"updatedAt" = $1
		WHERE "orderID" = $4 AND "adminApproved" = FALSE AND "rejectedAt" IS NULL AND status <> 'processing'
		RETURNING ` + orderColumns + `
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanOrder(s rowScanner) (Order, error) {
	var o Order
	var itemsJSON []byte
	var paymentID, paymentURL, rejectionReason, payoutID sql.NullString
	var approvedBy sql.NullInt64
	var approvedAt, rejectedAt, paidAt, completedAt sql.NullTime
	err := s.Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &itemsJSON,
		&o.TotalAmount, &o.CommissionAmount, &o.SellerAmount, &o.CommissionPercent,
		&paymentID, &paymentURL, &o.PaymentStatus, &o.Status,
		&o.AdminApproved, &approvedAt, &approvedBy, &rejectedAt, &rejectionReason,
		&payoutID, &o.PayoutStatus, &paidAt, &completedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return Order{}, err
		}
	}
	o.PaymentID = paymentID.String
	o.PaymentURL = paymentURL.String
	o.RejectionReason = rejectionReason.String
	o.PayoutID = payoutID.String
	if approvedBy.Valid {
		id := int(approvedBy.Int64)
		o.ApprovedBy = &id
	}
	if approvedAt.Valid {
		o.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		o.RejectedAt = &rejectedAt.Time
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if completedAt.Valid {
		o.CompletedAt = &completedAt.Time
	}
	return o, nil
}

func (r *PostgresRepository) Create(o Order) (Order, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, err
	}

	err = r.db.QueryRow(insertOrderQuery,
		o.OrderNumber, o.BuyerID, itemsJSON,
		o.TotalAmount, o.CommissionAmount, o.SellerAmount, o.CommissionPercent,
		o.PaymentID, o.PaymentURL, o.PaymentStatus, o.Status, o.PayoutStatus,
		o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) GetByID(id int) (Order, error) {
	o, err := scanOrder(r.db.QueryRow(getOrderByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) GetByPaymentID(paymentID string) (Order, error) {
	o, err := scanOrder(r.db.QueryRow(getOrderByPaymentIDQuery, paymentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) ListByBuyerID(buyerID int) ([]Order, error) {
	return r.list(listOrdersByBuyerQuery, buyerID)
}

func (r *PostgresRepository) ListAwaitingApproval() ([]Order, error) {
	return r.list(listAwaitingApprovalQuery)
}

func (r *PostgresRepository) list(query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *PostgresRepository) MarkPaid(id int, at time.Time) error {
	res, err := r.db.Exec(markPaidQuery, at, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetPaymentStatus(id int, status string, at time.Time) error {
	res, err := r.db.Exec(setPaymentStatusQuery, status, at, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ClaimForSettlement(id int, at time.Time) error {
	res, err := r.db.Exec(claimQuery, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyDecided
	}
	return nil
}

func (r *PostgresRepository) CompleteSettlement(id int, adminID int, payoutID string, at time.Time) (Order, error) {
	var payout any
	if payoutID != "" {
		payout = payoutID
	}
	o, err := scanOrder(r.db.QueryRow(completeSettlementQuery, at, adminID, payout, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) Reject(id int, adminID int, reason string, at time.Time) (Order, error) {
	o, err := scanOrder(r.db.QueryRow(rejectOrderQuery, at, adminID, reason, id))
	if err != nil {
		if err == sql.ErrNoRows {
			// distinguish missing from already-decided
			if _, getErr := r.GetByID(id); getErr == ErrNotFound {
				return Order{}, ErrNotFound
			}
			return Order{}, ErrAlreadyDecided
		}
		return Order{}, err
	}
	return o, nil
}
