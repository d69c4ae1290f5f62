package shops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

// Service manages shops.
type Service interface {
	Create(ctx context.Context, principal policy.Principal, input Input) (*models.Shop, error)
	Update(ctx context.Context, principal policy.Principal, id uuid.UUID, input UpdateInput) (*models.Shop, error)
	Delete(ctx context.Context, principal policy.Principal, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[models.Shop], error)
}

// Input carries a new shop.
type Input struct {
	Name           string
	Address        string
	PhoneNumber    string
	WhatsappNumber *string
	Lat            *float64
	Long           *float64
}

// UpdateInput carries shop changes; nil fields are left alone.
type UpdateInput struct {
	Name           *string
	Address        *string
	PhoneNumber    *string
	WhatsappNumber *string
	Lat            *float64
	Long           *float64
}

type service struct {
	repo Repository
}

// NewService wires the shop service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shops repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, principal policy.Principal, input Input) (*models.Shop, error) {
	if err := policy.Authorize(principal, policy.ActionCreate, policy.ResourceShop); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	address := strings.TrimSpace(input.Address)
	phone := strings.TrimSpace(input.PhoneNumber)
	if name == "" || address == "" || phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields: name, address, or phone number")
	}
	if err := validateCoordinates(input.Lat, input.Long); err != nil {
		return nil, err
	}

	shop := &models.Shop{
		Name:           name,
		Address:        address,
		PhoneNumber:    phone,
		WhatsappNumber: trimOptional(input.WhatsappNumber),
		Lat:            input.Lat,
		Long:           input.Long,
	}
	if err := s.repo.Create(ctx, shop); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create shop")
	}
	return shop, nil
}

func (s *service) Update(ctx context.Context, principal policy.Principal, id uuid.UUID, input UpdateInput) (*models.Shop, error) {
	if err := policy.Authorize(principal, policy.ActionUpdate, policy.ResourceShop); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Shop ID is required")
	}
	if err := validateCoordinates(input.Lat, input.Long); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	for column, value := range map[string]*string{
		"name":         input.Name,
		"address":      input.Address,
		"phone_number": input.PhoneNumber,
	} {
		if value == nil {
			continue
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must not be empty", column)
		}
		fields[column] = trimmed
	}
	if input.WhatsappNumber != nil {
		fields["whatsapp_number"] = trimOptional(input.WhatsappNumber)
	}
	if input.Lat != nil {
		fields["lat"] = *input.Lat
	}
	if input.Long != nil {
		fields["long"] = *input.Long
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, lookupErr(err)
	}
	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, lookupErr(err)
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, principal policy.Principal, id uuid.UUID) error {
	if err := policy.Authorize(principal, policy.ActionDelete, policy.ResourceShop); err != nil {
		return err
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Shop ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "Shop is still referenced by routes or orders")
		}
		return lookupErr(err)
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	shop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err)
	}
	return shop, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[models.Shop], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[models.Shop]{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list shops")
	}
	return pagination.NewPage(rows, params, total), nil
}

func validateCoordinates(lat, long *float64) error {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return pkgerrors.New(pkgerrors.CodeValidation, "lat must be between -90 and 90")
	}
	if long != nil && (*long < -180 || *long > 180) {
		return pkgerrors.New(pkgerrors.CodeValidation, "long must be between -180 and 180")
	}
	return nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func lookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Shop not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "shop storage")
}
