package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParsePagination reads page, pageSize and search. Oversized pages clamp.
func ParsePagination(r *http.Request) (pagination.Params, error) {
	page, err := ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return pagination.Params{}, err
	}
	size, err := ParseQueryInt(r, "pageSize", pagination.DefaultPageSize, 1, 1_000_000)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Page:     page,
		PageSize: size,
		Search:   SanitizeString(r.URL.Query().Get("search"), 200),
	}.Normalize(), nil
}

// RequireQueryUUID reads a mandatory uuid query parameter.
func RequireQueryUUID(r *http.Request, key, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s ID is required", label)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid %s ID", label).WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

// OptionalQueryUUID reads a uuid query parameter that may be absent.
func OptionalQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id").WithDetails(map[string]any{"field": key})
	}
	return &id, nil
}

// RequireQueryString reads a mandatory, trimmed query parameter.
func RequireQueryString(r *http.Request, key, message string) (string, error) {
	raw := SanitizeString(r.URL.Query().Get(key), 255)
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, message)
	}
	return raw, nil
}

// OptionalQueryDate reads an optional date query parameter.
func OptionalQueryDate(r *http.Request, key string) (*time.Time, error) {
	return ParseDate(r.URL.Query().Get(key), key)
}

// ParseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates. Blank input
// yields nil.
func ParseDate(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").WithDetails(map[string]any{"field": field})
}
