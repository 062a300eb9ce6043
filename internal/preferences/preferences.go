package preferences

import (
	"errors"
	"fmt"

	"github.com/odyssey-erp/admindash/internal/i18n"
)

// Preferences groups the providers of one visitor.
type Preferences struct {
	Theme     *Provider[Theme]
	Direction *Provider[Direction]
	Locale    *Provider[string]
}

// New returns providers for the given languages, the first being the default.
func New(langs ...string) *Preferences {
	return &Preferences{
		Theme:     NewThemeProvider(),
		Direction: NewDirectionProvider(),
		Locale:    NewLocaleProvider(langs...),
	}
}

// Init loads every provider from store.
func (p *Preferences) Init(store Store) {
	p.Theme.Init(store)
	p.Direction.Init(store)
	p.Locale.Init(store)
}

// SetLocale changes the language and aligns the text direction with it.
func (p *Preferences) SetLocale(lang string) error {
	if err := p.Locale.Set(lang); err != nil {
		return err
	}
	dir := LTR
	if i18n.IsRTL(lang) {
		dir = RTL
	}
	return p.Direction.Set(dir)
}

// Update is a partial change; empty fields are left alone.
type Update struct {
	Theme     string `json:"theme,omitempty" validate:"omitempty,oneof=light dark system"`
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=ltr rtl"`
	Locale    string `json:"locale,omitempty" validate:"omitempty,locale"`
}

// Apply performs u. An explicit direction wins over the one implied by the locale.
func (p *Preferences) Apply(u Update) error {
	var errs []error
	if u.Theme != "" {
		errs = append(errs, p.Theme.Set(Theme(u.Theme)))
	}
	if u.Locale != "" {
		errs = append(errs, p.SetLocale(u.Locale))
	}
	if u.Direction != "" {
		errs = append(errs, p.Direction.Set(Direction(u.Direction)))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("preferences: apply: %w", err)
	}
	return nil
}

// Reset restores every default.
func (p *Preferences) Reset() {
	p.Theme.Reset()
	p.Direction.Reset()
	p.Locale.Reset()
}

// Snapshot is the serialised view of the preferences.
type Snapshot struct {
	Theme         Theme     `json:"theme"`
	ResolvedTheme Theme     `json:"resolvedTheme"`
	Direction     Direction `json:"direction"`
	Locale        string    `json:"locale"`
	Defaults      Defaults  `json:"defaults"`
}

// Defaults lists the value each provider falls back to.
type Defaults struct {
	Theme     Theme     `json:"theme"`
	Direction Direction `json:"direction"`
	Locale    string    `json:"locale"`
}

// Snapshot captures the current values, resolving the system theme against
// the colour scheme hint.
func (p *Preferences) Snapshot(schemeHint string) Snapshot {
	return Snapshot{
		Theme:         p.Theme.Value(),
		ResolvedTheme: ResolveTheme(p.Theme.Value(), schemeHint),
		Direction:     p.Direction.Value(),
		Locale:        p.Locale.Value(),
		Defaults: Defaults{
			Theme:     p.Theme.Default(),
			Direction: p.Direction.Default(),
			Locale:    p.Locale.Default(),
		},
	}
}
