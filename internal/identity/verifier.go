package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// RejectionKind classifies why a token failed verification. Every kind
// surfaces to the caller as the same authentication failure; the kind is
// for logs and tests, never for response discrimination.
type RejectionKind string

const (
	RejectionMalformed         RejectionKind = "malformed_token"
	RejectionKeySetUnavailable RejectionKind = "key_set_unavailable"
	RejectionUnknownSigningKey RejectionKind = "unknown_signing_key"
	RejectionInvalidSignature  RejectionKind = "invalid_signature"
	RejectionInvalidIssuer     RejectionKind = "invalid_issuer"
	RejectionInvalidAudience   RejectionKind = "invalid_audience"
	RejectionExpired           RejectionKind = "expired"
)

// AuthError is the terminal Rejected state of a verification attempt.
type AuthError struct {
	Kind RejectionKind
	Msg  string
}

func (e *AuthError) Error() string {
	return e.Msg
}

func rejected(kind RejectionKind, format string, args ...any) *AuthError {
	return &AuthError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// allowedAlgorithms is the explicit allow-list for token signatures.
// Asymmetric algorithms only; shared-secret (HS*) tokens are never accepted.
var allowedAlgorithms = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.EdDSA,
}

// Claims is the verified claim set of an accepted token.
type Claims struct {
	Subject  string
	Issuer   string
	Audience []string
	Expiry   time.Time
	Groups   []string

	// Raw holds every payload claim for configurable extraction
	// (preferred_username, nested group objects).
	Raw map[string]any
}

// VerifierConfig carries the issuer/audience policy for token verification.
type VerifierConfig struct {
	// Issuer the token must have been issued by.
	Issuer string
	// ClientID must appear in the token audience.
	ClientID string
	// Leeway tolerated on expiry checks.
	Leeway time.Duration
	// GroupsClaimField names the claim carrying group memberships
	// (default "groups").
	GroupsClaimField string
	// GroupsClaimPath extracts group names from nested objects,
	// e.g. "name" for [{"name": "djs"}].
	GroupsClaimPath string
}

// Verifier validates externally issued identity tokens. Stateless apart
// from the key cache; safe for concurrent use.
type Verifier struct {
	cfg  VerifierConfig
	keys *KeyCache
	now  func() time.Time
}

// NewVerifier builds a Verifier over the given key cache.
func NewVerifier(cfg VerifierConfig, keys *KeyCache) (*Verifier, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("token verifier requires an issuer")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("token verifier requires a client id")
	}
	if cfg.GroupsClaimField == "" {
		cfg.GroupsClaimField = "groups"
	}
	return &Verifier{cfg: cfg, keys: keys, now: time.Now}, nil
}

// Verify runs a single token through the full verification sequence and
// returns the verified claims, or an *AuthError naming the first failed
// step. No partial claims are ever returned.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	// Step 1: parse the header without trusting the signature.
	alg, kid, err := parseTokenHeader(rawToken)
	if err != nil {
		return nil, rejected(RejectionMalformed, "malformed token: %v", err)
	}
	if !algorithmAllowed(alg) {
		return nil, rejected(RejectionInvalidSignature, "signature algorithm %q is not accepted", alg)
	}

	// Step 2: resolve the key set for the expected issuer.
	keySet, err := v.keys.Lookup(ctx, v.cfg.Issuer)
	if err != nil {
		return nil, rejected(RejectionKeySetUnavailable, "resolve signing keys: %v", err)
	}

	// Step 3: select the verification key.
	key, err := selectKey(keySet, kid)
	if err != nil {
		return nil, err
	}

	// Step 4: verify the signature.
	tok, err := jwt.ParseSigned(rawToken, allowedAlgorithms)
	if err != nil {
		return nil, rejected(RejectionMalformed, "malformed token: %v", err)
	}
	var std jwt.Claims
	raw := make(map[string]any)
	if err := tok.Claims(key, &std, &raw); err != nil {
		return nil, rejected(RejectionInvalidSignature, "token signature verification failed")
	}

	// Step 5: claim checks, in order, each with its own rejection kind.
	if std.Issuer != v.cfg.Issuer {
		return nil, rejected(RejectionInvalidIssuer, "token issued by %q, expected %q", std.Issuer, v.cfg.Issuer)
	}
	if !std.Audience.Contains(v.cfg.ClientID) {
		return nil, rejected(RejectionInvalidAudience, "token audience does not include %q", v.cfg.ClientID)
	}
	if std.Expiry == nil {
		return nil, rejected(RejectionExpired, "token carries no expiry")
	}
	expiry := std.Expiry.Time()
	if !v.now().Before(expiry.Add(v.cfg.Leeway)) {
		return nil, rejected(RejectionExpired, "token expired at %s", expiry.UTC().Format(time.RFC3339))
	}

	groups, err := ExtractGroups(raw, v.cfg.GroupsClaimField, v.cfg.GroupsClaimPath)
	if err != nil {
		return nil, rejected(RejectionMalformed, "extract group claims: %v", err)
	}

	return &Claims{
		Subject:  std.Subject,
		Issuer:   std.Issuer,
		Audience: []string(std.Audience),
		Expiry:   expiry,
		Groups:   groups,
		Raw:      raw,
	}, nil
}

// parseTokenHeader decodes the JOSE header segment only.
func parseTokenHeader(rawToken string) (alg, kid string, err error) {
	parts := strings.Split(rawToken, ".")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("expected three token segments, got %d", len(parts))
	}
	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("decode header: %w", err)
	}
	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return "", "", fmt.Errorf("decode header: %w", err)
	}
	if header.Alg == "" {
		return "", "", fmt.Errorf("header carries no algorithm")
	}
	return header.Alg, header.Kid, nil
}

func algorithmAllowed(alg string) bool {
	for _, a := range allowedAlgorithms {
		if string(a) == alg {
			return true
		}
	}
	return false
}

// selectKey picks the verification key from the set. A key-id must match
// exactly; a token without a key-id falls back to the first key, which is
// an explicit trust decision for single-key deployments.
func selectKey(keySet *jose.JSONWebKeySet, kid string) (jose.JSONWebKey, error) {
	if kid != "" {
		for _, k := range keySet.Key(kid) {
			return k, nil
		}
		return jose.JSONWebKey{}, rejected(RejectionUnknownSigningKey, "no key matches key id %q", kid)
	}
	if len(keySet.Keys) == 0 {
		return jose.JSONWebKey{}, rejected(RejectionUnknownSigningKey, "key set is empty")
	}
	return keySet.Keys[0], nil
}
