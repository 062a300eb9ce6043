// Package preferences holds the per-visitor display settings: colour theme,
// text direction and language.
package preferences

import (
	"fmt"
	"slices"
	"strings"

	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

// ErrInvalidValue reports a value outside a provider's allowed set.
var ErrInvalidValue = fmt.Errorf("preferences: invalid value: %w", httpx.ErrValidation)

// Theme is the colour scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Direction is the text direction preference.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// Cookie names.
const (
	ThemeCookie     = "mode"
	DirectionCookie = "dir"
	LocaleCookie    = "lang"
)

// Provider owns one preference: its current value, its default and the
// store it is persisted in. A Provider is not safe for concurrent use.
type Provider[V ~string] struct {
	name    string
	def     V
	allowed []V
	store   Store
	value   V
	stored  bool
}

// NewProvider creates a provider persisted under name.
func NewProvider[V ~string](name string, def V, allowed ...V) *Provider[V] {
	return &Provider[V]{name: name, def: def, allowed: allowed, value: def}
}

// NewThemeProvider returns the theme provider, defaulting to system.
func NewThemeProvider() *Provider[Theme] {
	return NewProvider(ThemeCookie, ThemeSystem, ThemeLight, ThemeDark, ThemeSystem)
}

// NewDirectionProvider returns the direction provider, defaulting to ltr.
func NewDirectionProvider() *Provider[Direction] {
	return NewProvider(DirectionCookie, LTR, LTR, RTL)
}

// NewLocaleProvider returns the language provider over the given languages.
// The first language is the default.
func NewLocaleProvider(langs ...string) *Provider[string] {
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	return NewProvider(LocaleCookie, langs[0], langs...)
}

// Init binds the provider to store and loads the persisted value. Unknown
// stored values are ignored.
func (p *Provider[V]) Init(store Store) {
	p.store = store
	p.value, p.stored = p.def, false
	if store == nil {
		return
	}
	raw, ok := store.Get(p.name)
	if !ok {
		return
	}
	if v := V(raw); p.Allows(v) {
		p.value, p.stored = v, true
	}
}

// Name is the store key of the preference.
func (p *Provider[V]) Name() string { return p.name }

// Value returns the current value.
func (p *Provider[V]) Value() V { return p.value }

// Default returns the value used when nothing is stored.
func (p *Provider[V]) Default() V { return p.def }

// Stored reports whether the current value came from or went to the store.
func (p *Provider[V]) Stored() bool { return p.stored }

// Allowed lists the accepted values.
func (p *Provider[V]) Allowed() []V { return slices.Clone(p.allowed) }

// Allows reports whether v is accepted.
func (p *Provider[V]) Allows(v V) bool { return slices.Contains(p.allowed, v) }

// Set changes the value and persists it for CookieMaxAge.
func (p *Provider[V]) Set(v V) error {
	if !p.Allows(v) {
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, p.name, v)
	}
	p.value, p.stored = v, true
	if p.store != nil {
		p.store.Set(p.name, string(v), CookieMaxAge)
	}
	return nil
}

// Reset restores the default and forgets the persisted value.
func (p *Provider[V]) Reset() {
	p.value, p.stored = p.def, false
	if p.store != nil {
		p.store.Delete(p.name)
	}
}

// ResolveTheme maps system to the scheme reported by the client hint
// (Sec-CH-Prefers-Color-Scheme), light when the hint is absent.
func ResolveTheme(t Theme, hint string) Theme {
	if t != ThemeSystem {
		return t
	}
	// The header is a structured-field string, quotes included.
	if Theme(strings.Trim(strings.TrimSpace(hint), `"`)) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}
