// Package returns settles returned orders: the original order is closed, the
// money goes back as a debit transaction, and a debit order is written into the
// trip the return was taken on.
package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/ledger"
	"github.com/beveragedistro/ops-backend/internal/orders"
	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transactionRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordInput) (*models.Transaction, error)
}

// Service confirms returns.
type Service interface {
	ConfirmReturn(ctx context.Context, principal policy.Principal, orderID, tripID uuid.UUID) (*Result, error)
}

// Result is everything a confirmed return wrote.
type Result struct {
	UpdatedOrder *models.Order       `json:"updatedOrder"`
	Transaction  *models.Transaction `json:"transaction"`
	ReturnOrder  *models.Order       `json:"returnOrder"`
}

type service struct {
	orders orders.Repository
	tx     txRunner
	ledger transactionRecorder
	trips  orders.TripLinker
	logg   *logger.Logger
}

// NewService wires the return resolver.
func NewService(repo orders.Repository, tx txRunner, recorder transactionRecorder, trips orders.TripLinker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("transaction recorder required")
	}
	if trips == nil {
		return nil, fmt.Errorf("trip linker required")
	}
	return &service{orders: repo, tx: tx, ledger: recorder, trips: trips, logg: logg}, nil
}

func (s *service) ConfirmReturn(ctx context.Context, principal policy.Principal, orderID, tripID uuid.UUID) (*Result, error) {
	if err := policy.Authorize(principal, policy.ActionReturn, policy.ResourceOrder); err != nil {
		return nil, err
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order ID is required")
	}
	if tripID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Trip ID is required")
	}

	var out Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load order")
		}
		if order.Status == enums.OrderStatusReturned {
			return pkgerrors.New(pkgerrors.CodeConflict, "Order has already been returned")
		}

		if err := repo.UpdateSettlement(ctx, order.ID, enums.PaymentTypeCash, enums.OrderStatusReturned); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "mark order returned")
		}
		order.PaymentType = enums.PaymentTypeCash
		order.Status = enums.OrderStatusReturned

		txn, err := s.ledger.Record(ctx, tx, ledger.RecordInput{
			OrderID: order.ID,
			ShopID:  order.ShopID,
			Amount:  order.TotalAmount,
			Type:    enums.TransactionTypeDebit,
		})
		if err != nil {
			return err
		}

		sourceID := order.ID
		returnOrder := &models.Order{
			ShopID:         order.ShopID,
			TotalAmount:    order.TotalAmount,
			Discount:       order.Discount,
			PaymentType:    enums.PaymentTypeCash,
			Status:         enums.OrderStatusPaid,
			Type:           enums.OrderTypeDebit,
			ReturnedFromID: &sourceID,
		}
		if err := repo.Create(ctx, returnOrder); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create return order")
		}

		if _, err := s.trips.LinkOrder(ctx, tx, tripID, returnOrder); err != nil {
			return err
		}

		out = Result{UpdatedOrder: order, Transaction: txn, ReturnOrder: returnOrder}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":        orderID.String(),
			"return_order_id": out.ReturnOrder.ID.String(),
			"trip_id":         tripID.String(),
			"amount":          out.Transaction.Amount.String(),
		}), "return.confirmed")
	}
	return &out, nil
}
