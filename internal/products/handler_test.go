package products

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/admindash/internal/listing"
)

func newTestRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()
	svc := newTestService(t, nil, fixtureProducts()...)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/api/products", h.MountRoutes)
	return r, svc
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandlerList(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/products?category=furniture,clothing&search=RUSTIC", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var page listing.Page[Product]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "613000000002", page.Data[0].ID)
	assert.Equal(t, 1, page.PageCount)
}

func TestHandlerFilters(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/products/filters", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body Filters
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, Categories, body.Category)
	assert.Equal(t, PriceRanges, body.Price)
}

func TestHandlerCRUD(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := `{"name":"Gorgeous Bronze Bike","category":"sports","availability":"preorder","price":240,"stock":2}`
	rr := serve(router, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(payload)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "premium", created.PriceRange)

	rr = serve(router, httptest.NewRequest(http.MethodGet, "/api/products/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	update := `{"name":"Gorgeous Bronze Bike","category":"sports","availability":"in-stock","price":40,"stock":2}`
	rr = serve(router, httptest.NewRequest(http.MethodPut, "/api/products/"+created.ID, strings.NewReader(update)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"priceRange":"budget"`)

	rr = serve(router, httptest.NewRequest(http.MethodDelete, "/api/products/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(router, httptest.NewRequest(http.MethodGet, "/api/products/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerValidationErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := serve(router, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"","price":0}`)))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Fields, "name")
	assert.Contains(t, body.Fields, "category")

	rr = serve(router, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"unknown":true}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerBulkEndpoints(t *testing.T) {
	router, svc := newTestRouter(t)

	rr := serve(router, httptest.NewRequest(http.MethodPost, "/api/products/bulk-category",
		strings.NewReader(`{"ids":["613000000001","613000000002"],"category":"books"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"updated":2}`, rr.Body.String())

	rr = serve(router, httptest.NewRequest(http.MethodPost, "/api/products/bulk-delete",
		strings.NewReader(`{"ids":["613000000001","613000000003"]}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"deleted":2}`, rr.Body.String())
	assert.Equal(t, 1, svc.dataset.Len())
}

func TestHandlerImport(t *testing.T) {
	router, svc := newTestRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(importCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := serve(router, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var result ImportResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 5, svc.dataset.Len())
}

func TestHandlerImportWithoutFile(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := serve(router, httptest.NewRequest(http.MethodPost, "/api/products/import", strings.NewReader("")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Please upload a file"}`, rr.Body.String())
}

func TestHandlerExport(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/products/export?ids=613000000003", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "613000000003,Smart Speaker,"))
}
