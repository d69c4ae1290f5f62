package users

import (
	"net/http"

	"github.com/beveragedistro/ops-backend/api/controllers/caller"
	"github.com/beveragedistro/ops-backend/api/responses"
	"github.com/beveragedistro/ops-backend/api/validators"
	internalusers "github.com/beveragedistro/ops-backend/internal/users"
	"github.com/beveragedistro/ops-backend/pkg/logger"
)

type userBody struct {
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	Status   string  `json:"status"`
	Password string  `json:"password"`
	Phone    *string `json:"phone"`
	Whatsapp *string `json:"whatsapp"`
	Address  *string `json:"address"`
	Title    *string `json:"title"`
}

func (b userBody) profile() internalusers.Profile {
	return internalusers.Profile{Phone: b.Phone, Whatsapp: b.Whatsapp, Address: b.Address, Title: b.Title}
}

type userEnvelope struct {
	Message string                 `json:"message"`
	User    *internalusers.UserDTO `json:"user"`
}

type deleteEnvelope struct {
	Message string `json:"message"`
	*internalusers.DeleteResult
}

func List(svc internalusers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "Users found", page)
	}
}

func Create(svc internalusers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body userBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Create(r.Context(), principal, internalusers.CreateInput{
			Email:    body.Email,
			Name:     body.Name,
			Role:     body.Role,
			Status:   body.Status,
			Password: body.Password,
			Profile:  body.profile(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, userEnvelope{Message: "User created successfully", User: user})
	}
}

// Update edits the account addressed by ?email=. A body email renames it.
func Update(svc internalusers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		email, err := validators.RequireQueryString(r, "email", "Missing required fields: email, name, or role")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body userBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Update(r.Context(), principal, validators.NormalizeEmail(email), internalusers.UpdateInput{
			Email:    body.Email,
			Name:     body.Name,
			Role:     body.Role,
			Status:   body.Status,
			Password: body.Password,
			Profile:  body.profile(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, userEnvelope{Message: "User updated successfully", User: user})
	}
}

// Delete removes the account and reports whether callers deleted themselves.
func Delete(svc internalusers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		email, err := validators.RequireQueryString(r, "email", "Email is required")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Delete(r.Context(), principal, validators.NormalizeEmail(email))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleteEnvelope{Message: "User deleted successfully", DeleteResult: result})
	}
}
