package server

import (
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/impala-radio/impala/internal/identity"
)

// handleInfo serves GET /. The API surface is still evolving.
func handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stable": false})
}

// handleHealthz reports process liveness.
func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleBasicLogin serves GET /login: HTTP basic auth against the local
// credentials file. Responds 401 on any credential failure without
// distinguishing unknown users from wrong passwords.
func handleBasicLogin(sessions *identity.SessionStore, users map[string]*identity.LocalUser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="impala"`)
			writeError(w, http.StatusUnauthorized, "Login required")
			return
		}

		user, found := users[username]
		if !found || !user.Authenticate(password) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token, err := sessions.Create(identity.Session{
			Username: user.Username,
			Roles:    user.Roles,
		})
		if err != nil {
			log.Printf("create session: %v", err)
			writeError(w, http.StatusInternalServerError, msgQueryFailure)
			return
		}

		setSessionCookie(w, r, token)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"token":   token,
		})
	}
}

// handleTokenLogin serves POST /login: exchanges an externally issued
// identity token for a catalog session. verifier is nil when token login
// is not configured.
func handleTokenLogin(sessions *identity.SessionStore, verifier *identity.Verifier, librarianGroups []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Browsers cannot set this header cross-site without a CORS
		// preflight, which keeps simple form posts from logging in.
		if r.Header.Get("X-Requested-With") == "" {
			writeError(w, http.StatusBadRequest, "X-Requested-With header is required")
			return
		}

		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, msgBadSyntax)
			return
		}
		rawToken := r.PostForm.Get("token")
		if rawToken == "" {
			writeError(w, http.StatusBadRequest, "token field is required")
			return
		}

		if verifier == nil {
			writeError(w, http.StatusUnauthorized, "Token login is not enabled")
			return
		}

		claims, err := verifier.Verify(r.Context(), rawToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		username := claims.Subject
		if preferred, ok := claims.Raw["preferred_username"].(string); ok && preferred != "" {
			username = preferred
		}

		token, err := sessions.Create(identity.Session{
			Username:  username,
			Roles:     identity.MapRoles(claims.Groups, librarianGroups),
			IDToken:   rawToken,
			ExpiresAt: claims.Expiry,
		})
		if err != nil {
			log.Printf("create session: %v", err)
			writeError(w, http.StatusInternalServerError, msgQueryFailure)
			return
		}

		setSessionCookie(w, r, token)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"token":   token,
		})
	}
}

// handleLogout serves POST /logout.
func handleLogout(sessions *identity.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			writeError(w, http.StatusUnauthorized, msgNoSession)
			return
		}

		sessions.Delete(tokenFromContext(r.Context()))
		clearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// handleWhoAmI serves GET /whoami. For token logins the stored identity
// token's payload is decoded (without re-verifying; it was verified at
// login) so clients can display provider claims.
func handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, msgNoSession)
		return
	}

	roles := sess.Roles
	if roles == nil {
		roles = []string{}
	}
	body := map[string]any{
		"username": sess.Username,
		"roles":    roles,
	}

	if sess.IDToken != "" {
		claims := jwt.MapClaims{}
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(sess.IDToken, claims); err == nil {
			body["claims"] = claims
		}
	}

	writeJSON(w, http.StatusOK, body)
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
