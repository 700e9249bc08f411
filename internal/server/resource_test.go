package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impala-radio/impala/internal/identity"
	"github.com/impala-radio/impala/internal/repository"
	"github.com/impala-radio/impala/internal/schema"
)

// mockStore is an in-memory repository.Store for handler tests.
type mockStore struct {
	records map[string]map[string]repository.Record

	insertErr error
	updateErr error

	lastPage   repository.Page
	lastFilter repository.HoldingSearchFilter
	searchRows []repository.Record
}

func newMockStore() *mockStore {
	return &mockStore{records: map[string]map[string]repository.Record{}}
}

func (m *mockStore) put(entity string, rec repository.Record) {
	if m.records[entity] == nil {
		m.records[entity] = map[string]repository.Record{}
	}
	m.records[entity][rec["id"].(string)] = rec
}

func (m *mockStore) Insert(_ context.Context, s *schema.Schema, rec repository.Record) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	id := rec["id"].(string)
	if _, exists := m.records[s.Entity][id]; exists {
		return repository.ErrConflict
	}
	m.put(s.Entity, rec)
	return nil
}

func (m *mockStore) Update(_ context.Context, s *schema.Schema, id string, fields repository.Record) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	rec, ok := m.records[s.Entity][id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		rec[k] = v
	}
	return nil
}

func (m *mockStore) GetByID(_ context.Context, s *schema.Schema, id string) (repository.Record, error) {
	rec, ok := m.records[s.Entity][id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (m *mockStore) List(_ context.Context, s *schema.Schema, page repository.Page) ([]repository.Record, error) {
	m.lastPage = page
	out := []repository.Record{}
	for _, rec := range m.records[s.Entity] {
		out = append(out, rec)
	}
	return out, nil
}

func (m *mockStore) SearchHoldings(_ context.Context, filter repository.HoldingSearchFilter, page repository.Page) ([]repository.Record, error) {
	m.lastFilter = filter
	m.lastPage = page
	if m.searchRows == nil {
		return []repository.Record{}, nil
	}
	return m.searchRows, nil
}

type testEnv struct {
	router   http.Handler
	sessions *identity.SessionStore
	store    *mockStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMockStore()
	sessions := identity.NewSessionStore(time.Hour)
	router := NewRouter(RouterOptions{
		Store:    store,
		Sessions: sessions,
	})
	return &testEnv{router: router, sessions: sessions, store: store}
}

// loginAs registers a session directly and returns its cookie.
func (e *testEnv) loginAs(t *testing.T, username string, roles ...string) *http.Cookie {
	t.Helper()
	token, err := e.sessions.Create(identity.Session{Username: username, Roles: roles})
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookieName, Value: token}
}

func (e *testEnv) do(t *testing.T, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestList_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/stacks", "", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	body := decodeMap(t, rr)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])
}

func TestList_AnyMemberMayRead(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "dj")

	rr := env.do(t, http.MethodGet, "/stacks", "", cookie)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestList_PaginationDefaults(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "dj")

	env.do(t, http.MethodGet, "/stacks", "", cookie)
	assert.Equal(t, repository.Page{Page: 1, Limit: 20}, env.store.lastPage)

	env.do(t, http.MethodGet, "/stacks?page=3&limit=5", "", cookie)
	assert.Equal(t, repository.Page{Page: 3, Limit: 5}, env.store.lastPage)
}

func TestList_MalformedPagination(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "dj")

	for _, target := range []string{"/stacks?page=0", "/stacks?page=abc", "/stacks?limit=-1"} {
		rr := env.do(t, http.MethodGet, target, "", cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestCreate_RequiresLibrarianRole(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPut, "/stacks", `{"name":"New arrivals"}`, env.loginAs(t, "dj"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPut, "/stacks", `{"name":"New arrivals"}`, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreate_StampsServerManagedFields(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "lib", identity.RoleLibrarian)

	rr := env.do(t, http.MethodPut, "/stacks",
		`{"name":"New arrivals","added_by":"mallory","id":""}`, cookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rec := decodeMap(t, rr)
	assert.Equal(t, "lib", rec["added_by"])
	assert.NotEmpty(t, rec["id"])
	assert.NotEmpty(t, rec["added_at"])
	assert.Equal(t, "New arrivals", rec["name"])
}

func TestCreate_HonorsCallerSuppliedID(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "lib", identity.RoleLibrarian)

	const id = "33333333-3333-3333-3333-333333333333"
	rr := env.do(t, http.MethodPut, "/stacks",
		fmt.Sprintf(`{"id":%q,"name":"Jazz"}`, id), cookie)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, id, decodeMap(t, rr)["id"])
}

func TestCreate_InvalidSuppliedID(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "lib", identity.RoleLibrarian)

	rr := env.do(t, http.MethodPut, "/stacks", `{"id":"not-a-uuid","name":"Jazz"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreate_DuplicateID(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "lib", identity.RoleLibrarian)

	const id = "33333333-3333-3333-3333-333333333333"
	body := fmt.Sprintf(`{"id":%q,"name":"Jazz"}`, id)

	rr := env.do(t, http.MethodPut, "/stacks", body, cookie)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodPut, "/stacks", body, cookie)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, msgConflict, decodeMap(t, rr)["message"])
}

func TestCreate_ValidationFailure(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "lib", identity.RoleLibrarian)

	rr := env.do(t, http.MethodPut, "/formats", `{"name":"CD"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeMap(t, rr)["message"], "physical")
}

func TestGet_NotFound(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "dj")

	rr := env.do(t, http.MethodGet, "/stacks/99999999-9999-9999-9999-999999999999", "", cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, msgNotFound, decodeMap(t, rr)["message"])
}

func TestUpdate_AnonymousRejectedBeforeStorage(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPatch, "/stacks/99999999-9999-9999-9999-999999999999",
		`{"name":"x"}`, nil)
	// Forbidden, not 404: the policy runs before the record lookup leaks
	// existence information.
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUpdate_RoleDenialBeforeStorage(t *testing.T) {
	env := newTestEnv(t)
	const missing = "99999999-9999-9999-9999-999999999999"

	// A member can never update a librarian-curated entity, so the
	// denial must not reveal whether the id exists.
	rr := env.do(t, http.MethodPatch, "/stacks/"+missing,
		`{"name":"x"}`, env.loginAs(t, "dj"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// A librarian passes the gate and learns the record is missing.
	rr = env.do(t, http.MethodPatch, "/stacks/"+missing,
		`{"name":"x"}`, env.loginAs(t, "lib", identity.RoleLibrarian))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Owner-gated entities need the record to decide, so a member
	// patching a missing tag sees the 404.
	rr = env.do(t, http.MethodPatch, "/holding_tags/"+missing,
		`{"tag":"x"}`, env.loginAs(t, "dj"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdate_IgnoresServerManagedFields(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "lib", identity.RoleLibrarian)

	const id = "33333333-3333-3333-3333-333333333333"
	env.store.put("stacks", repository.Record{
		"id": id, "name": "Jazz", "added_by": "lib", "added_at": "2024-01-01T00:00:00Z",
	})

	rr := env.do(t, http.MethodPatch, "/stacks/"+id,
		`{"name":"Jazz & Blues","added_by":"mallory","id":"44444444-4444-4444-4444-444444444444"}`, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	rec := decodeMap(t, rr)
	assert.Equal(t, id, rec["id"])
	assert.Equal(t, "lib", rec["added_by"])
	assert.Equal(t, "Jazz & Blues", rec["name"])
}

func TestUpdate_EmptyBodyIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "lib", identity.RoleLibrarian)

	const id = "33333333-3333-3333-3333-333333333333"
	env.store.put("stacks", repository.Record{
		"id": id, "name": "Jazz", "added_by": "lib", "added_at": "2024-01-01T00:00:00Z",
	})

	rr := env.do(t, http.MethodPatch, "/stacks/"+id, `{}`, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Jazz", decodeMap(t, rr)["name"])
}

func TestUpdate_OwnerMayEditOwnTag(t *testing.T) {
	env := newTestEnv(t)

	const id = "55555555-5555-5555-5555-555555555555"
	env.store.put("holding_tags", repository.Record{
		"id": id, "tag": "staff pick", "added_by": "dj",
		"holding_id": "22222222-2222-2222-2222-222222222222",
	})

	rr := env.do(t, http.MethodPatch, "/holding_tags/"+id,
		`{"tag":"late night"}`, env.loginAs(t, "dj"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "late night", decodeMap(t, rr)["tag"])
}

func TestUpdate_NonOwnerWithoutRoleForbidden(t *testing.T) {
	env := newTestEnv(t)

	const id = "55555555-5555-5555-5555-555555555555"
	env.store.put("holding_tags", repository.Record{
		"id": id, "tag": "staff pick", "added_by": "dj",
		"holding_id": "22222222-2222-2222-2222-222222222222",
	})

	rr := env.do(t, http.MethodPatch, "/holding_tags/"+id,
		`{"tag":"mine now"}`, env.loginAs(t, "someone-else"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Librarians may edit anyone's tag.
	rr = env.do(t, http.MethodPatch, "/holding_tags/"+id,
		`{"tag":"curated"}`, env.loginAs(t, "lib", identity.RoleLibrarian))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCreate_MemberMayCreateOwnedEntities(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "dj")

	rr := env.do(t, http.MethodPut, "/holding_tags",
		`{"tag":"banger","holding_id":"22222222-2222-2222-2222-222222222222"}`, cookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "dj", decodeMap(t, rr)["added_by"])
}

func TestSearch_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/holdings/search?any=coltrane", "", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSearch_PassesFilters(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginAs(t, "dj")

	rr := env.do(t, http.MethodGet,
		"/holdings/search?any=coltrane&album_artist=john&album_title=blue&label=impulse&page=2",
		"", cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, repository.HoldingSearchFilter{
		Any:         "coltrane",
		AlbumArtist: "john",
		AlbumTitle:  "blue",
		Label:       "impulse",
	}, env.store.lastFilter)
	assert.Equal(t, repository.Page{Page: 2, Limit: 20}, env.store.lastPage)
}

func TestInfo(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decodeMap(t, rr)["stable"])
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
