package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/impala-radio/impala/internal/identity"
)

func newAuthEnv(t *testing.T) (*testEnv, map[string]*identity.LocalUser) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	users := map[string]*identity.LocalUser{
		"pat": {
			Username:     "pat",
			PasswordHash: string(hash),
			Roles:        []string{identity.RoleLibrarian},
		},
	}

	store := newMockStore()
	sessions := identity.NewSessionStore(time.Hour)
	router := NewRouter(RouterOptions{
		Store:      store,
		Sessions:   sessions,
		LocalUsers: users,
	})
	return &testEnv{router: router, sessions: sessions, store: store}, users
}

func TestBasicLogin_Success(t *testing.T) {
	env, _ := newAuthEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.SetBasicAuth("pat", "hunter2")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decodeMap(t, rr)
	assert.Equal(t, true, body["success"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	// The issued token resolves to a librarian session.
	sess, ok := env.sessions.Get(token)
	require.True(t, ok)
	assert.Equal(t, "pat", sess.Username)
	assert.True(t, sess.HasRole(identity.RoleLibrarian))

	// And a session cookie was set.
	var found bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value == token {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBasicLogin_BadPassword(t *testing.T) {
	env, _ := newAuthEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.SetBasicAuth("pat", "wrong")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBasicLogin_UnknownUser(t *testing.T) {
	env, _ := newAuthEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.SetBasicAuth("nobody", "hunter2")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBasicLogin_NoCredentials(t *testing.T) {
	env, _ := newAuthEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))
}

func postTokenLogin(env *testEnv, form url.Values, requestedWith string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if requestedWith != "" {
		req.Header.Set("X-Requested-With", requestedWith)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func TestTokenLogin_MissingRequestedWithHeader(t *testing.T) {
	env, _ := newAuthEnv(t)

	rr := postTokenLogin(env, url.Values{"token": {"abc"}}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTokenLogin_MissingTokenField(t *testing.T) {
	env, _ := newAuthEnv(t)

	rr := postTokenLogin(env, url.Values{}, "XMLHttpRequest")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTokenLogin_DisabledWithoutVerifier(t *testing.T) {
	env, _ := newAuthEnv(t)

	rr := postTokenLogin(env, url.Values{"token": {"abc"}}, "XMLHttpRequest")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogout(t *testing.T) {
	env, _ := newAuthEnv(t)
	cookie := env.loginAs(t, "pat", identity.RoleLibrarian)

	rr := env.do(t, http.MethodPost, "/logout", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decodeMap(t, rr)["success"])

	// Session is gone; the same cookie no longer authenticates.
	rr = env.do(t, http.MethodGet, "/whoami", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogout_NoSession(t *testing.T) {
	env, _ := newAuthEnv(t)

	rr := env.do(t, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, msgNoSession, decodeMap(t, rr)["message"])
}

func TestWhoAmI(t *testing.T) {
	env, _ := newAuthEnv(t)
	cookie := env.loginAs(t, "pat", identity.RoleLibrarian)

	rr := env.do(t, http.MethodGet, "/whoami", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeMap(t, rr)
	assert.Equal(t, "pat", body["username"])
	assert.Equal(t, []any{identity.RoleLibrarian}, body["roles"])
}

func TestWhoAmI_BearerHeader(t *testing.T) {
	env, _ := newAuthEnv(t)

	token, err := env.sessions.Create(identity.Session{Username: "pat"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pat", decodeMap(t, rr)["username"])
}

func TestWhoAmI_Anonymous(t *testing.T) {
	env, _ := newAuthEnv(t)

	rr := env.do(t, http.MethodGet, "/whoami", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
