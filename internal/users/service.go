// Package users administers operator accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/pkg/config"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
	"github.com/beveragedistro/ops-backend/pkg/security"
)

// MinPasswordLength is the shortest password accepted for an account.
const MinPasswordLength = 6

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages user accounts.
type Service interface {
	Create(ctx context.Context, principal policy.Principal, input CreateInput) (*UserDTO, error)
	Update(ctx context.Context, principal policy.Principal, email string, input UpdateInput) (*UserDTO, error)
	Delete(ctx context.Context, principal policy.Principal, email string) (*DeleteResult, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[UserDTO], error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	password config.PasswordConfig
	logg     *logger.Logger
}

// NewService wires the user service.
func NewService(repo *Repository, tx txRunner, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, password: passwordCfg, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, principal policy.Principal, input CreateInput) (*UserDTO, error) {
	if err := policy.Authorize(principal, policy.ActionCreate, policy.ResourceUser); err != nil {
		return nil, err
	}
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" || strings.TrimSpace(input.Role) == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields: email, name, role, or password")
	}
	if len(input.Password) < MinPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Password must be at least 6 characters long")
	}
	role, status, err := parseRoleStatus(input.Role, input.Status)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManageRole(principal, role); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		Phone:        trimOptional(input.Phone),
		Whatsapp:     trimOptional(input.Whatsapp),
		Address:      trimOptional(input.Address),
		Title:        trimOptional(input.Title),
		Role:         role,
		Status:       status,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "User with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create user")
	}

	s.log(ctx, principal, "user.created", user)
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, principal policy.Principal, email string, input UpdateInput) (*UserDTO, error) {
	if err := policy.Authorize(principal, policy.ActionUpdate, policy.ResourceUser); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields: email, name, or role")
	}

	var out *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByEmail(ctx, email)
		if err != nil {
			return lookupErr(err)
		}

		name := strings.TrimSpace(input.Name)
		if name == "" || strings.TrimSpace(input.Role) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields: email, name, or role")
		}
		role, status, err := parseRoleStatus(input.Role, input.Status)
		if err != nil {
			return err
		}
		if err := policy.CanManageRole(principal, role); err != nil {
			return err
		}
		if err := policy.CanManageRole(principal, current.Role); err != nil {
			return err
		}
		if current.Role == enums.RoleAdmin && (role != enums.RoleAdmin || status != enums.UserStatusActive) {
			if err := ensureAnotherAdmin(ctx, repo, "Cannot demote the last admin"); err != nil {
				return err
			}
		}

		fields := map[string]any{
			"name":     name,
			"role":     role,
			"status":   status,
			"phone":    trimOptional(input.Phone),
			"whatsapp": trimOptional(input.Whatsapp),
			"address":  trimOptional(input.Address),
			"title":    trimOptional(input.Title),
		}
		if next := normalizeEmail(input.Email); next != "" {
			fields["email"] = next
		}
		if input.Password != "" {
			if len(input.Password) < MinPasswordLength {
				return pkgerrors.New(pkgerrors.CodeValidation, "Password must be at least 6 characters long")
			}
			hash, err := security.HashPassword(input.Password, s.password)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
			}
			fields["password_hash"] = hash
		}

		if err := repo.Update(ctx, current.ID, fields); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "User with this email already exists")
			}
			return lookupErr(err)
		}
		out, err = repo.FindByID(ctx, current.ID)
		if err != nil {
			return lookupErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, principal, "user.updated", out)
	return FromModel(out), nil
}

// Delete removes the account addressed by email. The admin count is read in
// the same transaction as the delete.
func (s *service) Delete(ctx context.Context, principal policy.Principal, email string) (*DeleteResult, error) {
	if err := policy.Authorize(principal, policy.ActionDelete, policy.ResourceUser); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email is required")
	}

	var deleted *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByEmail(ctx, email)
		if err != nil {
			return lookupErr(err)
		}
		if current.Role == enums.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, repo, "Cannot delete the last admin"); err != nil {
				return err
			}
		}
		if err := repo.Delete(ctx, current.ID); err != nil {
			return lookupErr(err)
		}
		deleted = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, principal, "user.deleted", deleted)
	return &DeleteResult{LogoutNeeded: strings.EqualFold(principal.Email, email)}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[UserDTO], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list users")
	}
	page := pagination.NewPage(rows, params, total)
	return pagination.Map(page, func(u models.User) UserDTO {
		return *FromModel(&u)
	}), nil
}

func ensureAnotherAdmin(ctx context.Context, repo *Repository, message string) error {
	admins, err := repo.CountByRole(ctx, enums.RoleAdmin)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "count admins")
	}
	if admins < 2 {
		return pkgerrors.New(pkgerrors.CodeConflict, message)
	}
	return nil
}

func parseRoleStatus(rawRole, rawStatus string) (enums.Role, enums.UserStatus, error) {
	role, err := enums.ParseRole(strings.ToLower(strings.TrimSpace(rawRole)))
	if err != nil {
		return "", "", pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", rawRole)
	}
	status := enums.UserStatusActive
	if s := strings.TrimSpace(rawStatus); s != "" {
		status, err = enums.ParseUserStatus(strings.ToLower(s))
		if err != nil {
			return "", "", pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", rawStatus)
		}
	}
	return role, status, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
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

func (s *service) log(ctx context.Context, principal policy.Principal, event string, user *models.User) {
	if s.logg == nil || user == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"actor":  principal.Email,
		"target": user.Email,
		"role":   user.Role.String(),
	})
	s.logg.Info(ctx, event)
}

func lookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "User with the given email not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "user storage")
}
