// Package credential keeps the provider session identifier (sid) fresh and
// checkpoints it to a small JSON file.
package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// Lifetime is shorter than the provider's stated 24h.
	Lifetime = 20 * time.Hour
	// ExpirySkew marks a token expired this long before its deadline.
	ExpirySkew = 5 * time.Minute

	minPlausibleTokenLen = 20
)

var sidCookie = regexp.MustCompile(`(?:^|[;\s])sid=([^;\s]+)`)

// Options configures a Store. Zero values fall back to sensible defaults.
type Options struct {
	Path       string
	EnvToken   string
	LoginURL   string
	ProbeURLs  []string
	HTTPClient *http.Client
	Now        func() time.Time
}

type persisted struct {
	SID         string     `json:"sid"`
	ExpiryTime  *time.Time `json:"expiryTime"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// Store owns the session credential. It is safe for concurrent use.
type Store struct {
	opts Options
	http *http.Client
	now  func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt *time.Time

	persistMu sync.Mutex

	refreshing atomic.Bool
}

func New(opts Options) *Store {
	s := &Store{opts: opts, http: opts.HTTPClient, now: opts.Now}
	if s.now == nil {
		s.now = time.Now
	}
	if s.http == nil {
		s.http = &http.Client{Timeout: 8 * time.Second}
	}
	// The login page answers with a redirect that carries the cookie.
	client := *s.http
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	s.http = &client
	return s
}

// Load reads the persisted credential, falling back to the environment token.
// Read errors are swallowed.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.Path != "" {
		if raw, err := os.ReadFile(s.opts.Path); err == nil {
			var p persisted
			if err := json.Unmarshal(raw, &p); err == nil && p.SID != "" {
				s.token = p.SID
				s.expiresAt = p.ExpiryTime
				log.Printf("✓ Loaded session credential from %s", s.opts.Path)
				return
			}
		}
	}
	s.token = s.opts.EnvToken
	s.expiresAt = nil
}

// Update installs a new token valid for Lifetime and persists it.
func (s *Store) Update(token string) {
	// persistMu orders file writes the same way mu orders the in-memory token
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.token = token
	exp := s.now().Add(Lifetime)
	s.expiresAt = &exp
	p := persisted{SID: token, ExpiryTime: &exp, LastUpdated: s.now()}
	s.mu.Unlock()

	if err := s.persist(p); err != nil {
		log.Printf("✗ Failed to persist session credential: %v", err)
	}
}

// persist writes p to a temp file next to Path and renames it into place.
func (s *Store) persist(p persisted) error {
	if s.opts.Path == "" {
		return nil
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(s.opts.Path), filepath.Base(s.opts.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", s.opts.Path, err)
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := f.Chmod(0o600); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to chmod %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.opts.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", s.opts.Path, err)
	}
	return nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt returns nil when the expiry is unknown.
func (s *Store) ExpiresAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expiresAt == nil {
		return nil
	}
	t := *s.expiresAt
	return &t
}

// IsExpired reports whether less than ExpirySkew remains. An unknown expiry
// is never expired.
func (s *Store) IsExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expiresAt == nil {
		return false
	}
	return s.expiresAt.Sub(s.now()) < ExpirySkew
}

// EnsureValid returns the token to use, attempting one refresh when it has
// expired. Concurrent callers skip the refresh and get the current token.
func (s *Store) EnsureValid(ctx context.Context) string {
	token := s.Token()
	if token == "" || !s.IsExpired() {
		return token
	}
	if !s.refreshing.CompareAndSwap(false, true) {
		return token
	}
	defer s.refreshing.Store(false)

	log.Printf("🔄 Session credential expired, refreshing...")
	sid, err := s.refresh(ctx)
	if err != nil {
		log.Printf("✗ Credential refresh failed: %v", err)
		return token
	}
	s.Update(sid)
	log.Printf("✓ Session credential refreshed")
	return sid
}

func (s *Store) refresh(ctx context.Context) (string, error) {
	if s.opts.LoginURL == "" {
		return "", fmt.Errorf("no login url configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.LoginURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if token := s.Token(); token != "" {
		req.Header.Set("Cookie", "sid="+token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	for _, c := range resp.Header.Values("Set-Cookie") {
		if m := sidCookie.FindStringSubmatch(c); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("no sid cookie in login response (status %d)", resp.StatusCode)
}

// TestAuth probes known endpoints with the current token. Any 200/400/401/403
// counts as alive; if every probe errors it guesses from the token length.
func (s *Store) TestAuth(ctx context.Context) bool {
	token := s.Token()
	for _, u := range s.opts.ProbeURLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
		if err != nil {
			continue
		}
		req.Header.Set("Cookie", "sid="+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-csrf-token", "x")

		resp, err := s.http.Do(req)
		if err != nil {
			log.Printf("✗ Auth probe %s: %v", u, err)
			continue
		}
		resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
	}
	return len(token) > minPlausibleTokenLen
}
