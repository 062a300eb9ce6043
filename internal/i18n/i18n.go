// Package i18n serves the UI dictionaries and negotiates the display language.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Fallback is the language used when negotiation finds no match.
const Fallback = "en"

//go:embed locales/*.json
var locales embed.FS

// Translator resolves dotted message keys against per-language dictionaries.
type Translator struct {
	dicts   map[string]map[string]any
	langs   []string
	matcher language.Matcher
}

// New loads the embedded dictionaries.
func New() (*Translator, error) {
	sub, err := fs.Sub(locales, "locales")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Load reads every <lang>.json at the root of fsys. The Fallback dictionary
// must be present.
func Load(fsys fs.FS) (*Translator, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	t := &Translator{dicts: make(map[string]map[string]any, len(names))}
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		var dict map[string]any
		if err := json.Unmarshal(raw, &dict); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", name, err)
		}
		lang := strings.TrimSuffix(path.Base(name), ".json")
		if _, err := language.Parse(lang); err != nil {
			return nil, fmt.Errorf("i18n: %s is not a language tag: %w", name, err)
		}
		t.dicts[lang] = dict
	}
	if _, ok := t.dicts[Fallback]; !ok {
		return nil, fmt.Errorf("i18n: missing %s dictionary", Fallback)
	}

	// The matcher falls back to the first tag, so Fallback leads.
	t.langs = append(t.langs, Fallback)
	for lang := range t.dicts {
		if lang != Fallback {
			t.langs = append(t.langs, lang)
		}
	}
	slices.Sort(t.langs[1:])
	tags := make([]language.Tag, len(t.langs))
	for i, lang := range t.langs {
		tags[i] = language.Make(lang)
	}
	t.matcher = language.NewMatcher(tags)
	return t, nil
}

// Languages lists the available languages, Fallback first.
func (t *Translator) Languages() []string {
	return slices.Clone(t.langs)
}

// Supports reports whether a dictionary exists for lang.
func (t *Translator) Supports(lang string) bool {
	_, ok := t.dicts[lang]
	return ok
}

// Dictionary returns the full message tree of lang.
func (t *Translator) Dictionary(lang string) (map[string]any, bool) {
	dict, ok := t.dicts[lang]
	return dict, ok
}

// T looks key up in the dictionary of lang, walking one nesting level per
// dot. The key itself is returned when the path is missing or does not end
// on a string.
func (t *Translator) T(lang, key string) string {
	var node any = t.dicts[lang]
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return key
		}
		node = m[part]
	}
	if s, ok := node.(string); ok {
		return s
	}
	return key
}

// Match picks the best available language for an Accept-Language header.
func (t *Translator) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Fallback
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return Fallback
	}
	return t.langs[idx]
}

// IsRTL reports whether lang is written right to left.
func IsRTL(lang string) bool {
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	script, _ := tag.Script()
	switch script.String() {
	case "Arab", "Hebr", "Thaa", "Syrc", "Nkoo", "Adlm", "Rohg", "Mand", "Samr":
		return true
	}
	return false
}
