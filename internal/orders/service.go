package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/ledger"
	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/internal/stock"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transactionRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordInput) (*models.Transaction, error)
}

// TripLinker attaches an order to the trip it was taken on.
type TripLinker interface {
	LinkOrder(ctx context.Context, tx *gorm.DB, tripID uuid.UUID, order *models.Order) (*models.TripOrder, error)
}

// Service creates, settles and lists orders.
type Service interface {
	Create(ctx context.Context, principal policy.Principal, input CreateInput) (*models.Order, error)
	ConfirmCashPayment(ctx context.Context, principal policy.Principal, orderID uuid.UUID) (*Confirmation, error)
	List(ctx context.Context, filter ListFilter) (pagination.Page[models.Order], error)
	ListReturnable(ctx context.Context, shopID *uuid.UUID) ([]models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	stock  stock.Adjuster
	ledger transactionRecorder
	trips  TripLinker
	logg   *logger.Logger
}

// NewService wires the order processor.
func NewService(repo Repository, tx txRunner, adjuster stock.Adjuster, recorder transactionRecorder, trips TripLinker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if adjuster == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("transaction recorder required")
	}
	if trips == nil {
		return nil, fmt.Errorf("trip linker required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		stock:  adjuster,
		ledger: recorder,
		trips:  trips,
		logg:   logg,
	}, nil
}

// Create records the order, its settling transaction when paid in cash, its
// trip link and every line with the matching stock movement. Any failure rolls
// the whole order back.
func (s *service) Create(ctx context.Context, principal policy.Principal, input CreateInput) (*models.Order, error) {
	if err := policy.Authorize(principal, policy.ActionCreate, policy.ResourceOrder); err != nil {
		return nil, err
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	order := &models.Order{
		ShopID:      input.ShopID,
		TotalAmount: input.TotalAmount,
		Discount:    input.Discount,
		PaymentType: input.PaymentType,
		Status:      enums.OrderStatusPaid,
		Type:        input.Type,
	}
	reason := stock.ReasonOrderCredit
	if input.Type == enums.OrderTypeDebit {
		reason = stock.ReasonOrderDebit
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Shop not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create order")
		}

		if input.PaymentType == enums.PaymentTypeCash {
			if _, err := s.ledger.Record(ctx, tx, ledger.RecordInput{
				OrderID: order.ID,
				ShopID:  order.ShopID,
				Amount:  order.TotalAmount,
				Type:    order.Type.TransactionType(),
			}); err != nil {
				return err
			}
		}

		if _, err := s.trips.LinkOrder(ctx, tx, input.TripID, order); err != nil {
			if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return err
			}
			s.warn(ctx, "order.trip_missing", order, input.TripID)
		}

		for _, in := range input.Lines {
			line := models.OrderLine{
				OrderID:    order.ID,
				ProductKey: strings.TrimSpace(in.ProductKey),
				Quantity:   in.Quantity,
			}
			if err := repo.CreateLine(ctx, &line); err != nil {
				if db.IsForeignKeyViolation(err) {
					return pkgerrors.Newf(pkgerrors.CodeNotFound, "Product not found: %s", line.ProductKey)
				}
				return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create order line")
			}
			if _, err := s.stock.Adjust(ctx, tx, line.ProductKey, order.Type.StockSign()*line.Quantity, reason); err != nil {
				return err
			}
			order.Lines = append(order.Lines, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"shop_id":      order.ShopID.String(),
			"trip_id":      input.TripID.String(),
			"type":         order.Type.String(),
			"payment_type": order.PaymentType.String(),
			"lines":        len(order.Lines),
		}), "order.created")
	}
	return order, nil
}

// ConfirmCashPayment settles a credit order: the order becomes cash/complete
// and a credit transaction for its total is recorded.
func (s *service) ConfirmCashPayment(ctx context.Context, principal policy.Principal, orderID uuid.UUID) (*Confirmation, error) {
	if err := policy.Authorize(principal, policy.ActionConfirm, policy.ResourceOrder); err != nil {
		return nil, err
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order ID is required")
	}

	var out Confirmation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return orderLookupErr(err)
		}
		if order.PaymentType == enums.PaymentTypeCash {
			return pkgerrors.New(pkgerrors.CodeConflict, "Order is already marked as cash payment")
		}
		if order.Status == enums.OrderStatusReturned {
			return pkgerrors.New(pkgerrors.CodeConflict, "Order has already been returned")
		}

		if err := repo.UpdateSettlement(ctx, order.ID, enums.PaymentTypeCash, enums.OrderStatusComplete); err != nil {
			return orderLookupErr(err)
		}
		order.PaymentType = enums.PaymentTypeCash
		order.Status = enums.OrderStatusComplete

		txn, err := s.ledger.Record(ctx, tx, ledger.RecordInput{
			OrderID: order.ID,
			ShopID:  order.ShopID,
			Amount:  order.TotalAmount,
			Type:    enums.TransactionTypeCredit,
		})
		if err != nil {
			return err
		}
		out = Confirmation{UpdatedOrder: order, Transaction: txn}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":       orderID.String(),
			"transaction_id": out.Transaction.ID.String(),
			"amount":         out.Transaction.Amount.String(),
		}), "order.confirmed")
	}
	return &out, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (pagination.Page[models.Order], error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list orders")
	}
	return pagination.NewPage(rows, filter.Params, total), nil
}

func (s *service) ListReturnable(ctx context.Context, shopID *uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListReturnable(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list returnable orders")
	}
	if rows == nil {
		rows = []models.Order{}
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order ID is required")
	}
	order, err := s.repo.FindDetailed(ctx, id)
	if err != nil {
		return nil, orderLookupErr(err)
	}
	return order, nil
}

func validateCreate(input CreateInput) error {
	if input.ShopID == uuid.Nil || input.TripID == uuid.Nil || len(input.Lines) == 0 ||
		input.TotalAmount.IsZero() || input.Type == "" || input.PaymentType == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid request")
	}
	if !input.Type.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order type %q", input.Type)
	}
	if !input.PaymentType.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment type %q", input.PaymentType)
	}
	if input.TotalAmount.IsNegative() || input.Discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}
	for i, line := range input.Lines {
		if strings.TrimSpace(line.ProductKey) == "" {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "products[%d]: productId is required", i)
		}
		if line.Quantity <= 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "products[%d]: quantity must be greater than zero", i)
		}
	}
	return nil
}

func orderLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load order")
}

func (s *service) warn(ctx context.Context, event string, order *models.Order, tripID uuid.UUID) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"trip_id":  tripID.String(),
	}), event)
}
