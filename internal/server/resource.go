package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/impala-radio/impala/internal/authz"
	"github.com/impala-radio/impala/internal/db/bunx"
	"github.com/impala-radio/impala/internal/identity"
	"github.com/impala-radio/impala/internal/repository"
	"github.com/impala-radio/impala/internal/schema"
)

const (
	defaultPageLimit = 20
)

// Resource wires one catalog entity's schema, access policy and storage
// into the four REST handlers. Every entity goes through the same
// authorize, validate, stamp, persist sequence.
type Resource struct {
	Schema *schema.Schema
	Policy authz.Policy
	Store  repository.Store
}

// handleList serves GET /<entity>.
func (res *Resource) handleList(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if d := res.Policy.CanRead(sess); !d.Allowed {
		writeError(w, http.StatusForbidden, msgForbidden)
		return
	}

	page, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadSyntax)
		return
	}

	recs, err := res.Store.List(r.Context(), res.Schema, page)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleGet serves GET /<entity>/<id>.
func (res *Resource) handleGet(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if d := res.Policy.CanRead(sess); !d.Allowed {
		writeError(w, http.StatusForbidden, msgForbidden)
		return
	}

	rec, err := res.Store.GetByID(r.Context(), res.Schema, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleCreate serves PUT /<entity>. The caller may bring their own id;
// otherwise one is generated. added_by and added_at are always stamped
// server-side, whatever the body claims.
func (res *Resource) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if d := res.Policy.CanCreate(sess); !d.Allowed {
		writeError(w, http.StatusForbidden, msgForbidden)
		return
	}

	input, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadSyntax)
		return
	}

	fields, err := schema.Validate(res.Schema, input, schema.ModeCreate)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	id, err := resolveID(input)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadSyntax)
		return
	}

	fields[schema.FieldID] = id
	fields[schema.FieldAddedBy] = usernameOf(sess)
	fields[schema.FieldAddedAt] = time.Now().UTC()

	if err := res.Store.Insert(r.Context(), res.Schema, fields); err != nil {
		writeStoreError(w, err)
		return
	}

	rec, err := res.Store.GetByID(r.Context(), res.Schema, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleUpdate serves PATCH /<entity>/<id>. Ownership decisions need the
// record's added_by value, so the policy runs twice: a pre-check with the
// caller as hypothetical owner, then the real check after the fetch. The
// caller's own username is the only owner value that can flip a denial,
// so a pre-check denial is final and never reaches storage.
func (res *Resource) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusForbidden, msgForbidden)
		return
	}
	if d := res.Policy.CanUpdate(sess, sess.Username); !d.Allowed {
		writeError(w, http.StatusForbidden, msgForbidden)
		return
	}

	id := chi.URLParam(r, "id")
	current, err := res.Store.GetByID(r.Context(), res.Schema, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	owner, _ := current[schema.FieldAddedBy].(string)
	if d := res.Policy.CanUpdate(sess, owner); !d.Allowed {
		writeError(w, http.StatusForbidden, msgForbidden)
		return
	}

	input, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadSyntax)
		return
	}

	fields, err := schema.Validate(res.Schema, input, schema.ModeUpdate)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	// A body with nothing updatable is a no-op, not an error.
	if len(fields) > 0 {
		if err := res.Store.Update(r.Context(), res.Schema, id, fields); err != nil {
			writeStoreError(w, err)
			return
		}
	}

	rec, err := res.Store.GetByID(r.Context(), res.Schema, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// resolveID honors a caller-supplied id, otherwise generates one.
func resolveID(input map[string]any) (string, error) {
	raw, ok := input[schema.FieldID]
	if !ok || raw == nil {
		return bunx.NewUUIDv7(), nil
	}
	str, ok := raw.(string)
	if !ok || strings.TrimSpace(str) == "" {
		return bunx.NewUUIDv7(), nil
	}
	id, err := uuid.Parse(strings.TrimSpace(str))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func usernameOf(sess *identity.Session) string {
	if sess == nil {
		return ""
	}
	return sess.Username
}

// parseBody accepts a JSON object or form-encoded fields.
func parseBody(r *http.Request) (map[string]any, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		input := make(map[string]any)
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			return nil, err
		}
		return input, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	input := make(map[string]any, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			input[key] = values[0]
		}
	}
	return input, nil
}

// parsePagination reads page and limit query parameters.
func parsePagination(r *http.Request) (repository.Page, error) {
	page := repository.Page{Page: 1, Limit: defaultPageLimit}

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return repository.Page{}, errors.New("invalid page")
		}
		page.Page = n
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return repository.Page{}, errors.New("invalid limit")
		}
		page.Limit = n
	}
	return page, nil
}

// writeValidationError maps a schema validation failure to a 400.
func writeValidationError(w http.ResponseWriter, err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Msg)
		return
	}
	writeError(w, http.StatusBadRequest, msgBadSyntax)
}
