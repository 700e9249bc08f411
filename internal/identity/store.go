package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// tokenLength is the length of generated session tokens in bytes.
const tokenLength = 32

// GenerateToken creates a cryptographically random session token.
// Returns the token (hex string) and its SHA-256 hash used for lookup.
func GenerateToken() (token string, hash string, err error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate session token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken hashes a session token for storage and lookup.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionStore holds active sessions in process memory, keyed by token
// hash. Sessions are intentionally not persisted; a restart logs everyone
// out. Safe for concurrent use.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create registers a session and returns the bearer token the client must
// present on subsequent requests.
func (s *SessionStore) Create(sess Session) (string, error) {
	token, hash, err := GenerateToken()
	if err != nil {
		return "", err
	}

	expiry := s.now().Add(s.ttl)
	// Token logins never outlive the verified token itself.
	if sess.IDToken != "" && !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(expiry) {
		expiry = sess.ExpiresAt
	}
	sess.ExpiresAt = expiry

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[hash] = &sess
	return token, nil
}

// Get resolves a presented token to its session. Expired sessions are
// removed and reported as absent.
func (s *SessionStore) Get(token string) (*Session, bool) {
	hash := HashToken(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[hash]
	if !ok {
		return nil, false
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, hash)
		return nil, false
	}
	copied := *sess
	return &copied, true
}

// Delete removes the session for the presented token, if any.
func (s *SessionStore) Delete(token string) {
	hash := HashToken(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, hash)
}

// sweepLocked drops expired sessions. Caller holds the lock.
func (s *SessionStore) sweepLocked() {
	now := s.now()
	for hash, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, hash)
		}
	}
}
