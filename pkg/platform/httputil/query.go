package httputil

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/requestcontext"
)

// QueryNow reads an RFC3339 instant from the "now" query parameter. When it
// is absent the request time is used.
func QueryNow(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("now"))
	if raw == "" {
		return requestcontext.Now(r.Context()), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.Validation("now", "now must be an RFC3339 timestamp")
	}
	return t.UTC(), nil
}

// QueryInt reads an integer query parameter, returning def when absent.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.Validation(key, key+" must be an integer")
	}
	return n, nil
}

// QueryBool reads a boolean query parameter, returning false when absent.
func QueryBool(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, dErrors.Validation(key, key+" must be a boolean")
	}
	return b, nil
}

// QueryEntityID reads an optional entity_id query parameter.
func QueryEntityID(r *http.Request) (*id.EntityID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("entity_id"))
	if raw == "" {
		return nil, nil
	}
	entityID, err := id.ParseEntityID(raw)
	if err != nil {
		return nil, err
	}
	return &entityID, nil
}

// Actor returns the authenticated user set by the auth middleware.
func Actor(r *http.Request) (id.UserID, error) {
	actor := requestcontext.UserID(r.Context())
	if actor.IsNil() {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}
