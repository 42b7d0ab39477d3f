package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded to [min, max].
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw, err := singleQueryValue(r, key)
	if err != nil || raw == "" {
		return defaultVal, err
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

// ParseQueryToken reads an optional opaque token such as a page cursor. It
// must be printable ASCII without spaces and at most maxLen bytes.
func ParseQueryToken(r *http.Request, key string, maxLen int) (string, error) {
	raw, err := singleQueryValue(r, key)
	if err != nil || raw == "" {
		return "", err
	}
	if len(raw) > maxLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter too long").WithDetails(map[string]any{"field": key, "max": maxLen})
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] <= ' ' || raw[i] > '~' {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter is malformed").WithDetails(map[string]any{"field": key})
		}
	}
	return raw, nil
}

// singleQueryValue rejects repeated keys rather than silently taking the first.
func singleQueryValue(r *http.Request, key string) (string, error) {
	values := r.URL.Query()[key]
	switch len(values) {
	case 0:
		return "", nil
	case 1:
		return strings.TrimSpace(values[0]), nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter given more than once").WithDetails(map[string]any{"field": key})
}
