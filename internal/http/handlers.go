package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"expensetracker/internal/core"
	"expensetracker/internal/errs"
	"expensetracker/internal/export"
	"expensetracker/internal/log"
	"expensetracker/internal/query"
	"expensetracker/internal/stats"
)

const msgInvalidBody = "Invalid request body"

type transactionData struct {
	Transaction core.Transaction `json:"transaction"`
}

type monthlyData struct {
	MonthlyStats []stats.MonthlyStat `json:"monthlyStats"`
}

// paramsFromRequest copies the list and export query parameters.
func paramsFromRequest(r *http.Request) query.Params {
	q := r.URL.Query()
	return query.Params{
		Page:      q.Get("page"),
		Limit:     q.Get("limit"),
		Category:  q.Get("category"),
		Type:      q.Get("type"),
		Month:     q.Get("month"),
		Year:      q.Get("year"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
}

// decodeBody reads a JSON object of at most maxBodyBytes into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return errs.NewValidationError(msgInvalidBody)
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	spec, msgs := query.Parse(paramsFromRequest(r), s.service.Location())
	if len(msgs) > 0 {
		HandleError(w, r, errs.NewValidationError(msgs...))
		return
	}

	page, err := s.service.List(r.Context(), spec)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, page)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, transactionData{Transaction: t})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload core.CreatePayload
	if err := decodeBody(w, r, &payload); err != nil {
		HandleError(w, r, err)
		return
	}
	draft, msgs := payload.Validate(s.service.Location())
	if len(msgs) > 0 {
		HandleError(w, r, errs.NewValidationError(msgs...))
		return
	}

	t, err := s.service.Create(r.Context(), draft)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentTransaction).InfoContext(r.Context(),
		"Transaction created via API",
		log.NewFields().WithTransaction(t.ID, string(t.Kind), t.Amount.String(), string(t.Category)).ToSlice()...)
	WriteSuccess(w, http.StatusCreated, transactionData{Transaction: t})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload core.UpdatePayload
	if err := decodeBody(w, r, &payload); err != nil {
		HandleError(w, r, err)
		return
	}
	patch, msgs := payload.Validate(s.service.Location())
	if len(msgs) > 0 {
		HandleError(w, r, errs.NewValidationError(msgs...))
		return
	}

	t, err := s.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, transactionData{Transaction: t})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		HandleError(w, r, err)
		return
	}
	NewResponse().Message(statusSuccess, "Transaction deleted successfully").Write(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Stats(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, summary)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	months, err := s.service.Monthly(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if months == nil {
		months = []stats.MonthlyStat{}
	}
	WriteSuccess(w, http.StatusOK, monthlyData{MonthlyStats: months})
}

// handleExport streams every matching transaction as a download. The body is
// rendered before any header is written so failures still get an envelope.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		HandleError(w, r, errs.NewValidationError("Format must be csv or json"))
		return
	}
	filter, sort, msgs := query.ParseFilter(paramsFromRequest(r), s.service.Location())
	if len(msgs) > 0 {
		HandleError(w, r, errs.NewValidationError(msgs...))
		return
	}

	txs, err := s.service.Export(r.Context(), filter, sort)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, txs); err != nil {
		HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+format.Filename(s.now()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
