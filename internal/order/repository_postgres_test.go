package order

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var orderColumnNames = []string{
	"orderID", "orderNumber", "buyerID", "items", "totalAmount", "commissionAmount",
	"sellerAmount", "commissionPercent", "paymentID", "paymentURL", "paymentStatus",
	"status", "adminApproved", "approvedAt", "approvedBy", "rejectedAt",
	"rejectionReason", "payoutID", "payoutStatus", "paidAt", "completedAt",
	"createdAt", "updatedAt",
}

func orderRow(id int, status string) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, "ORD-1700000000000-42", 7, []byte(`[{"productId":10,"sellerId":100,"name":"Berry jam","price":300,"quantity":2}]`),
		600.0, 60.0, 540.0, 10, "pay-1", "https://pay.example/1", "succeeded",
		status, false, nil, nil, nil, nil, nil, "pending", nil, nil, now, now,
	}
}

func TestClaimForSettlement_LostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	// another settlement already moved the order out of 'paid'
	mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.ClaimForSettlement(1, time.Now()); err != ErrAlreadyDecided {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClaimForSettlement_Wins(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ClaimForSettlement(1, time.Now()); err != nil {
		t.Fatalf("expected claim to succeed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByID_ScansItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows(orderColumnNames).AddRow(orderRow(1, StatusPaid)...)
	mock.ExpectQuery("FROM orders").WithArgs(1).WillReturnRows(rows)

	ord, err := repo.GetByID(1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(ord.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(ord.Items))
	}
	if ord.Items[0].SellerID != 100 || ord.Items[0].Total() != 600 {
		t.Errorf("unexpected item snapshot: %+v", ord.Items[0])
	}
	if ord.Status != StatusPaid {
		t.Errorf("unexpected status %q", ord.Status)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM orders").WithArgs(404).WillReturnRows(sqlmock.NewRows(orderColumnNames))

	if _, err := repo.GetByID(404); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReject_AlreadyDecidedDistinguishedFromMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	// the conditional UPDATE matched nothing; re-fetch finds the order,
	// so it must have been decided already
	mock.ExpectQuery("UPDATE orders").WillReturnRows(sqlmock.NewRows(orderColumnNames))
	rows := sqlmock.NewRows(orderColumnNames).AddRow(orderRow(1, StatusCompleted)...)
	mock.ExpectQuery("FROM orders").WithArgs(1).WillReturnRows(rows)

	if _, err := repo.Reject(1, 9, "late", time.Now()); err != ErrAlreadyDecided {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReject_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("UPDATE orders").WillReturnRows(sqlmock.NewRows(orderColumnNames))
	mock.ExpectQuery("FROM orders").WithArgs(404).WillReturnRows(sqlmock.NewRows(orderColumnNames))

	if _, err := repo.Reject(404, 9, "late", time.Now()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkPaid_PendingOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkPaid(1, time.Now()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for non-pending order, got %v", err)
	}
}
