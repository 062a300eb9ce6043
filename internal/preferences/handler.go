package preferences

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/admindash/internal/i18n"
	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

// SchemeHintHeader carries the browser's preferred colour scheme.
const SchemeHintHeader = "Sec-CH-Prefers-Color-Scheme"

// Handler serves the visitor's preferences from cookies.
type Handler struct {
	logger     *slog.Logger
	translator *i18n.Translator
	validator  *httpx.Validator
	secure     bool
}

// NewHandler builds the preferences handler. secure marks the cookies Secure.
func NewHandler(logger *slog.Logger, translator *i18n.Translator, secure bool) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v := httpx.NewValidator()
	if err := v.RegisterOptions("locale", translator.Languages()); err != nil {
		return nil, err
	}
	return &Handler{logger: logger, translator: translator, validator: v, secure: secure}, nil
}

// MountRoutes registers the preference endpoints under the current router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Put("/", h.update)
	r.Delete("/", h.reset)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) *Preferences {
	w.Header().Set("Accept-CH", SchemeHintHeader)
	w.Header().Add("Vary", SchemeHintHeader)
	prefs := New(h.translator.Languages()...)
	prefs.Init(NewCookieStore(w, r, h.secure))
	return prefs
}

// respond writes the snapshot. Without a stored language the browser's
// Accept-Language decides, without persisting anything.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, prefs *Preferences) {
	snap := prefs.Snapshot(r.Header.Get(SchemeHintHeader))
	if !prefs.Locale.Stored() {
		snap.Locale = h.translator.Match(r.Header.Get("Accept-Language"))
		if !prefs.Direction.Stored() && i18n.IsRTL(snap.Locale) {
			snap.Direction = RTL
		}
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.load(w, r))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var u Update
	if err := httpx.DecodeJSON(r, &u); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(u); err != nil {
		httpx.RespondError(w, err)
		return
	}
	prefs := h.load(w, r)
	if err := prefs.Apply(u); err != nil {
		h.logger.Error("apply preferences", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, r, prefs)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	prefs := h.load(w, r)
	prefs.Reset()
	h.respond(w, r, prefs)
}
