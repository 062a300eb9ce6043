package i18n

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

// LanguageInfo describes one available language.
type LanguageInfo struct {
	Code string `json:"code"`
	RTL  bool   `json:"rtl"`
}

// Bundle is the payload of a dictionary request.
type Bundle struct {
	Language string         `json:"language"`
	RTL      bool           `json:"rtl"`
	Messages map[string]any `json:"messages"`
}

// Handler exposes the dictionaries over HTTP.
type Handler struct {
	translator *Translator
}

// NewHandler builds the i18n handler.
func NewHandler(translator *Translator) *Handler {
	return &Handler{translator: translator}
}

// MountRoutes registers the i18n endpoints under the current router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.languages)
	r.Get("/{lang}", h.bundle)
}

func (h *Handler) languages(w http.ResponseWriter, r *http.Request) {
	langs := h.translator.Languages()
	infos := make([]LanguageInfo, len(langs))
	for i, lang := range langs {
		infos[i] = LanguageInfo{Code: lang, RTL: IsRTL(lang)}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"languages":  infos,
		"negotiated": h.translator.Match(r.Header.Get("Accept-Language")),
	})
}

func (h *Handler) bundle(w http.ResponseWriter, r *http.Request) {
	lang := chi.URLParam(r, "lang")
	dict, ok := h.translator.Dictionary(lang)
	if !ok {
		httpx.Error(w, http.StatusNotFound, "unknown language "+lang)
		return
	}
	httpx.JSON(w, http.StatusOK, Bundle{Language: lang, RTL: IsRTL(lang), Messages: dict})
}
