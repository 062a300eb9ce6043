package products

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/odyssey-erp/admindash/internal/catalog"
	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

// csvColumns is the header shared by import and export.
var csvColumns = []string{"id", "name", "description", "category", "availability", "price", "stock", "imageUrl"}

// Import limits.
const (
	MaxImportBytes = 5 << 20
	MaxImportRows  = 5000
	sniffBytes     = 3072
)

// RowError reports why one CSV line was rejected. Row counts the header as 1.
type RowError struct {
	Row    int               `json:"row"`
	Fields map[string]string `json:"fields"`
}

// ImportResult summarises one import batch.
type ImportResult struct {
	BatchID  string     `json:"batchId"`
	Imported int        `json:"imported"`
	Rejected int        `json:"rejected"`
	Errors   []RowError `json:"errors"`
}

// Import reads a CSV catalog from r. Valid rows are added to the catalog in
// file order, invalid rows are reported and skipped. The upload is rejected
// outright when it does not sniff as text. Short files (a header and at most
// one row) sniff as text/plain rather than text/csv, the header check decides
// for them.
func (s *Service) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	head, err := br.Peek(sniffBytes)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return ImportResult{}, fmt.Errorf("%w: read upload: %v", httpx.ErrBadRequest, err)
	}
	if len(head) == 0 {
		return ImportResult{}, fmt.Errorf("%w: empty upload", httpx.ErrBadRequest)
	}
	if mt := mimetype.Detect(head); !mt.Is("text/csv") && !mt.Is("text/plain") {
		return ImportResult{}, fmt.Errorf("%w: expected text/csv, got %s", httpx.ErrUnsupported, mt.String())
	}

	reader := csv.NewReader(br)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: read header: %v", httpx.ErrBadRequest, err)
	}
	index, err := headerIndex(header)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{BatchID: uuid.NewString(), Errors: []RowError{}}
	var accepted []Product
	seen := make(map[string]struct{})
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return ImportResult{}, fmt.Errorf("%w: row %d: %v", httpx.ErrBadRequest, row, err)
		}
		if row-1 > MaxImportRows {
			return ImportResult{}, fmt.Errorf("%w: more than %d rows", httpx.ErrBadRequest, MaxImportRows)
		}
		p, fields := s.parseRow(record, index, seen)
		if len(fields) > 0 {
			result.Errors = append(result.Errors, RowError{Row: row, Fields: fields})
			continue
		}
		seen[p.ID] = struct{}{}
		accepted = append(accepted, p)
	}

	if len(accepted) > 0 {
		if err := s.dataset.Append(ctx, accepted...); err != nil {
			return ImportResult{}, err
		}
	}
	result.Imported = len(accepted)
	result.Rejected = len(result.Errors)
	s.logger.Info("product import finished",
		"batch_id", result.BatchID,
		"imported", result.Imported,
		"rejected", result.Rejected,
	)
	return result, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	var missing []string
	for _, required := range []string{"name", "category", "availability", "price"} {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", httpx.ErrBadRequest, strings.Join(missing, ", "))
	}
	return index, nil
}

func (s *Service) parseRow(record []string, index map[string]int, seen map[string]struct{}) (Product, map[string]string) {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	fields := make(map[string]string)
	form := Form{
		Name:         cell("name"),
		Description:  cell("description"),
		Category:     cell("category"),
		Availability: cell("availability"),
		ImageURL:     cell("imageUrl"),
	}
	if raw := cell("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fields["price"] = "must be a number"
		}
		form.Price = price
	}
	if raw := cell("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			fields["stock"] = "must be a whole number"
		}
		form.Stock = stock
	}
	if err := s.validator.Struct(form); err != nil {
		var verr *httpx.ValidationError
		if !errors.As(err, &verr) {
			fields["row"] = err.Error()
		} else {
			for k, v := range verr.Fields {
				if _, exists := fields[k]; !exists {
					fields[k] = v
				}
			}
		}
	}

	id := cell("id")
	switch {
	case id == "":
		id = s.freshID(seen)
	default:
		_, dup := seen[id]
		if _, err := s.dataset.Get(id); dup || err == nil {
			fields["id"] = "already exists"
		} else if !errors.Is(err, catalog.ErrNotFound) {
			fields["id"] = err.Error()
		}
	}
	if len(fields) > 0 {
		return Product{}, fields
	}
	return form.apply(Product{ID: id}), nil
}

func (s *Service) freshID(seen map[string]struct{}) string {
	for {
		id := s.newID()
		if _, dup := seen[id]; dup {
			continue
		}
		if _, err := s.dataset.Get(id); err != nil {
			return id
		}
	}
}

// WriteCSV serialises products with the import header, so an export can be
// imported again.
func WriteCSV(w io.Writer, products []Product) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(csvColumns); err != nil {
		return err
	}
	for _, p := range products {
		if err := writer.Write([]string{
			p.ID,
			p.Name,
			p.Description,
			p.Category,
			p.Availability,
			formatPrice(p.Price),
			strconv.Itoa(p.Stock),
			p.ImageURL,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}
