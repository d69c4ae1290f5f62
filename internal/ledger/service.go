package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

// Service records and lists payment ledger entries.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.Transaction, error)
	List(ctx context.Context, filter ListFilter) (pagination.Page[models.Transaction], error)
}

// RecordInput captures the immutable data a transaction requires.
type RecordInput struct {
	OrderID uuid.UUID
	ShopID  uuid.UUID
	Amount  decimal.Decimal
	Type    enums.TransactionType
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Record appends a settled cash transaction inside the caller's transaction.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.Transaction, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid transaction type %q", input.Type)
	}

	now := s.now().UTC()
	txn := &models.Transaction{
		OrderID:       input.OrderID,
		ShopID:        input.ShopID,
		Amount:        input.Amount,
		DateCreated:   now,
		DatePaid:      &now,
		PaymentMethod: enums.PaymentMethodCash,
		Type:          input.Type,
	}

	if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create transaction")
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (pagination.Page[models.Transaction], error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return pagination.Page[models.Transaction]{}, pkgerrors.New(pkgerrors.CodeValidation, "endDate must not be before startDate")
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[models.Transaction]{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list transactions")
	}
	return pagination.NewPage(rows, filter.Params, total), nil
}
