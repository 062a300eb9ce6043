package preferences

import (
	"net/http"
	"sync"
	"time"
)

// CookieMaxAge is how long a stored preference survives.
const CookieMaxAge = 365 * 24 * time.Hour

// Store persists preference values by name.
type Store interface {
	Get(name string) (string, bool)
	Set(name, value string, maxAge time.Duration)
	Delete(name string)
}

// MemoryStore keeps values in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return v, ok
}

func (s *MemoryStore) Set(name, value string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

func (s *MemoryStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
}

// CookieStore reads preferences from the request cookies and writes changes
// as Set-Cookie headers. Values written during the request shadow the
// incoming cookies.
type CookieStore struct {
	r       *http.Request
	w       http.ResponseWriter
	secure  bool
	written map[string]*string
}

// NewCookieStore binds a store to one request/response pair.
func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{r: r, w: w, secure: secure, written: make(map[string]*string)}
}

func (s *CookieStore) Get(name string) (string, bool) {
	if v, ok := s.written[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	c, err := s.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *CookieStore) Set(name, value string, maxAge time.Duration) {
	s.written[name] = &value
	http.SetCookie(s.w, s.cookie(name, value, int(maxAge/time.Second)))
}

func (s *CookieStore) Delete(name string) {
	s.written[name] = nil
	http.SetCookie(s.w, s.cookie(name, "", -1))
}

func (s *CookieStore) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
