package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zitadel/oidc/v3/pkg/client"
)

// keyCacheSize bounds the number of cached issuers. The catalog talks to a
// single provider, so anything above one is headroom.
const keyCacheSize = 4

// KeyCache resolves and caches the public verification keys for an issuer.
// Keys are fetched once and kept for the process lifetime; a rotated
// provider key requires a restart. A configured static key set bypasses
// discovery entirely.
type KeyCache struct {
	static     *jose.JSONWebKeySet
	httpClient *http.Client
	cache      *lru.Cache[string, *jose.JSONWebKeySet]
}

// NewKeyCache builds a key cache. static may be nil, in which case key
// sets are fetched from the issuer's discovery document on first use.
func NewKeyCache(static *jose.JSONWebKeySet, httpClient *http.Client) (*KeyCache, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cache, err := lru.New[string, *jose.JSONWebKeySet](keyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("initialise key cache: %w", err)
	}
	return &KeyCache{
		static:     static,
		httpClient: httpClient,
		cache:      cache,
	}, nil
}

// Lookup returns the key set for the issuer. Concurrent first-time lookups
// may fetch twice; the key material is immutable so the race is harmless.
func (c *KeyCache) Lookup(ctx context.Context, issuer string) (*jose.JSONWebKeySet, error) {
	if c.static != nil {
		return c.static, nil
	}
	if keySet, ok := c.cache.Get(issuer); ok {
		return keySet, nil
	}

	discovery, err := client.Discover(ctx, issuer, c.httpClient)
	if err != nil {
		return nil, fmt.Errorf("fetch discovery document for %s: %w", issuer, err)
	}
	if discovery.JwksURI == "" {
		return nil, fmt.Errorf("discovery document for %s carries no jwks_uri", issuer)
	}

	keySet, err := c.fetchKeySet(ctx, discovery.JwksURI)
	if err != nil {
		return nil, err
	}

	c.cache.Add(issuer, keySet)
	return keySet, nil
}

func (c *KeyCache) fetchKeySet(ctx context.Context, jwksURI string) (*jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, nil)
	if err != nil {
		return nil, fmt.Errorf("build key set request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch key set: unexpected status %d", resp.StatusCode)
	}

	keySet := new(jose.JSONWebKeySet)
	if err := json.NewDecoder(resp.Body).Decode(keySet); err != nil {
		return nil, fmt.Errorf("decode key set: %w", err)
	}
	return keySet, nil
}

// LoadStaticKeySet reads a JWKS document from disk for deployments that
// pin provider keys instead of using discovery.
func LoadStaticKeySet(path string) (*jose.JSONWebKeySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static key set: %w", err)
	}
	keySet := new(jose.JSONWebKeySet)
	if err := json.Unmarshal(data, keySet); err != nil {
		return nil, fmt.Errorf("parse static key set: %w", err)
	}
	if len(keySet.Keys) == 0 {
		return nil, fmt.Errorf("static key set %s contains no keys", path)
	}
	return keySet, nil
}
