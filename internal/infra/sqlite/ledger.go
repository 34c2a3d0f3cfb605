// Package sqlite stores the payment ledger in a local SQLite database via gorm.
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/ledger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Payment is the gorm model behind ledger.Entry.
type Payment struct {
	gorm.Model
	TransactionID string `gorm:"uniqueIndex;not null"`
	StudentID     string `gorm:"index"`
	StudentName   string
	FeeTitle      string
	ReceiptID     string
	Method        string
	MethodLabel   string
	Amount        int64
	PaidAt        time.Time
	Status        string
	Details       domain.PaymentDetails `gorm:"serializer:json"`
}

func toRow(e ledger.Entry) *Payment {
	return &Payment{
		TransactionID: e.TransactionID,
		StudentID:     e.StudentID,
		StudentName:   e.StudentName,
		FeeTitle:      e.FeeTitle,
		ReceiptID:     e.ReceiptID,
		Method:        string(e.Method),
		MethodLabel:   e.MethodLabel,
		Amount:        e.Amount,
		PaidAt:        e.Date,
		Status:        string(e.Status),
		Details:       e.Details,
	}
}

func (p *Payment) entry() ledger.Entry {
	return ledger.Entry{
		TransactionID: p.TransactionID,
		StudentID:     p.StudentID,
		StudentName:   p.StudentName,
		FeeTitle:      p.FeeTitle,
		ReceiptID:     p.ReceiptID,
		Method:        domain.Method(p.Method),
		MethodLabel:   p.MethodLabel,
		Amount:        p.Amount,
		Date:          p.PaidAt,
		Status:        ledger.Status(p.Status),
		Details:       p.Details,
	}
}

// LedgerStore implements ledger.Store on SQLite.
type LedgerStore struct {
	db *gorm.DB
}

// Open connects to the database at path and migrates the schema.
func Open(path string) (*LedgerStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("Open: connect to %s: %w", path, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &LedgerStore{db: db}, nil
}

// Migrate creates or updates the payments table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Payment{}); err != nil {
		return fmt.Errorf("Migrate: payments: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *LedgerStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record inserts e or overwrites the row with the same transaction id.
func (s *LedgerStore) Record(ctx context.Context, e ledger.Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"student_id", "student_name", "fee_title", "receipt_id", "method", "method_label", "amount", "paid_at", "status", "details", "updated_at"}),
		}).
		Create(toRow(e)).Error
	if err != nil {
		return fmt.Errorf("Record: save %s: %w", e.TransactionID, err)
	}
	return nil
}

// ListByStudent returns a student's payments, newest first.
func (s *LedgerStore) ListByStudent(ctx context.Context, studentID string) ([]ledger.Entry, error) {
	var rows []Payment
	err := s.db.WithContext(ctx).Where("student_id = ?", studentID).Order("paid_at DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListByStudent: query %s: %w", studentID, err)
	}
	return entries(rows), nil
}

// List returns every payment, newest first.
func (s *LedgerStore) List(ctx context.Context) ([]ledger.Entry, error) {
	var rows []Payment
	if err := s.db.WithContext(ctx).Order("paid_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("List: query: %w", err)
	}
	return entries(rows), nil
}

func entries(rows []Payment) []ledger.Entry {
	out := make([]ledger.Entry, len(rows))
	for i := range rows {
		out[i] = rows[i].entry()
	}
	return out
}

var _ ledger.Store = (*LedgerStore)(nil)
