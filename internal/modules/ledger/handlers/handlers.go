// Package handlers provides HTTP handlers for ledger import.
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/ledger"
)

const maxStatementBytes = 32 << 20

// StatementExtractor turns a PDF statement into raw rows.
type StatementExtractor interface {
	Extract(r io.ReaderAt, size int64) ([]domain.RawRow, error)
}

// LedgerSource loads the configured ledger file.
type LedgerSource func() ([]domain.RawRow, error)

// Handler handles ledger HTTP requests
type Handler struct {
	pdf    StatementExtractor
	source LedgerSource
	log    zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(
	pdf StatementExtractor,
	source LedgerSource,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		pdf:    pdf,
		source: source,
		log:    log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleGetTransactions handles GET /api/ledger/transactions
// Returns the normalized configured ledger, newest first, capped by ?limit.
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 100 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	if h.source == nil {
		h.writeError(w, http.StatusNotFound, "no ledger configured")
		return
	}
	rows, err := h.source()
	if err != nil {
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}
	txns, err := ledger.Normalize(rows)
	if err != nil {
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}

	total := len(txns)
	latest := newestFirst(txns)
	if len(latest) > limit {
		latest = latest[:limit]
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"transactions": latest,
		"count":        len(latest),
		"total":        total,
	})
}

// newestFirst orders transactions by date descending. Rows sharing a
// timestamp keep reverse file order.
func newestFirst(txns []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txns))
	for i, t := range txns {
		out[len(txns)-1-i] = t
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// HandleImport handles POST /api/ledger/import
// Accepts a text/csv ledger or an application/pdf statement and returns the
// normalized rows, or the ledger CSV when ?format=csv.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var (
		rows []domain.RawRow
		err  error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "text/csv":
		rows, err = ledger.ReadCSV(r.Body)
	case "application/pdf":
		rows, err = h.extractPDF(r)
	default:
		h.writeError(w, http.StatusUnsupportedMediaType, "expected text/csv or application/pdf")
		return
	}
	if err != nil {
		h.log.Warn().Err(err).Str("content_type", mediaType).Msg("Ledger import failed")
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}

	txns, err := ledger.Normalize(rows)
	if err != nil {
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}
	h.log.Info().Int("rows", len(txns)).Str("content_type", mediaType).Msg("Imported ledger")

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := ledger.WriteCSV(w, txns); err != nil {
			h.log.Error().Err(err).Msg("Failed to write ledger CSV")
		}
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"transactions": txns,
		"count":        len(txns),
	})
}

func (h *Handler) extractPDF(r *http.Request) ([]domain.RawRow, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxStatementBytes))
	if err != nil {
		return nil, err
	}
	return h.pdf.Extract(bytes.NewReader(data), int64(len(data)))
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
