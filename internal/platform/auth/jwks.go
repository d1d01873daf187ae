package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	keyMaxAge        = 5 * time.Minute
	keyFetchCooldown = 30 * time.Second
	keyFetchTimeout  = 10 * time.Second
)

// webKey is one RSA entry of a JSON Web Key Set.
type webKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type webKeySet struct {
	Keys []webKey `json:"keys"`
}

// keySet serves verification keys published at a JWKS URL. Keys are reloaded
// once they are older than maxAge, or when a token names an unknown kid, but
// never more often than once per cooldown. Concurrent reloads collapse into
// one request.
type keySet struct {
	url      string
	client   *http.Client
	maxAge   time.Duration
	cooldown time.Duration
	now      func() time.Time

	reload singleflight.Group

	mu       sync.RWMutex
	keys     map[string]*rsa.PublicKey
	loadedAt time.Time
	triedAt  time.Time
}

func newKeySet(url string) *keySet {
	return &keySet{
		url:      url,
		client:   &http.Client{Timeout: keyFetchTimeout},
		maxAge:   keyMaxAge,
		cooldown: keyFetchCooldown,
		now:      time.Now,
		keys:     map[string]*rsa.PublicKey{},
	}
}

// Key returns the public key for kid. A stale key is still served when the
// set cannot be reloaded.
func (s *keySet) Key(kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	key, known := s.keys[kid]
	fresh := s.now().Sub(s.loadedAt) < s.maxAge
	cooling := !s.triedAt.IsZero() && s.now().Sub(s.triedAt) < s.cooldown
	s.mu.RUnlock()

	if known && (fresh || cooling) {
		return key, nil
	}
	if cooling {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}

	_, err, _ := s.reload.Do("jwks", func() (interface{}, error) {
		return nil, s.load()
	})
	if err != nil {
		if known {
			return key, nil
		}
		return nil, fmt.Errorf("load signing keys: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("unknown key id %q", kid)
}

// load fetches the key set unless another caller already tried within the
// cooldown.
func (s *keySet) load() error {
	s.mu.Lock()
	if !s.triedAt.IsZero() && s.now().Sub(s.triedAt) < s.cooldown {
		s.mu.Unlock()
		return nil
	}
	s.triedAt = s.now()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), keyFetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", s.url, resp.StatusCode)
	}

	var set webKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode key set: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		if pub, err := k.rsaKey(); err == nil {
			keys[k.Kid] = pub
		}
	}

	s.mu.Lock()
	s.keys = keys
	s.loadedAt = s.now()
	s.mu.Unlock()
	return nil
}

func (k webKey) rsaKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	exp := new(big.Int).SetBytes(e)
	if len(n) == 0 || !exp.IsInt64() || exp.Int64() < 3 {
		return nil, errors.New("malformed rsa key")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}, nil
}

// Keyfunc resolves the verification key from the token's kid header.
func (s *keySet) Keyfunc(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no kid header")
	}
	return s.Key(kid)
}
