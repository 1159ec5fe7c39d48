package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/catalog"
	"github.com/leapstack-labs/sqlmatch/internal/corpus"
	"github.com/leapstack-labs/sqlmatch/pkg/parser"
	"github.com/leapstack-labs/sqlmatch/pkg/tablematch"
)

// maxBody bounds request bodies.
const maxBody = 8 << 20

// reloadEvent is the event type announcing a catalog reload.
const reloadEvent datastar.EventType = "reload"

type errorResponse struct {
	Error string `json:"error"`
}

// MatchRequest scores one predicted query against a gold query.
type MatchRequest struct {
	DB         string           `json:"db_id"`
	Gold       string           `json:"gold"`
	Pred       string           `json:"pred"`
	Question   string           `json:"question,omitempty"`
	GoldResult tablematch.Table `json:"gold_result,omitempty"`
	PredResult tablematch.Table `json:"pred_result,omitempty"`
}

// ExecRequest compares two result tables.
type ExecRequest struct {
	Pred          tablematch.Table `json:"pred"`
	Label         tablematch.Table `json:"label"`
	Question      string           `json:"question,omitempty"`
	Ordered       bool             `json:"ordered,omitempty"`
	CompareHeader bool             `json:"compare_header,omitempty"`
}

// ParseRequest inspects one query.
type ParseRequest struct {
	DB  string `json:"db_id"`
	SQL string `json:"sql"`
}

// DatabaseInfo describes one catalog database.
type DatabaseInfo struct {
	Name        string              `json:"name"`
	Tables      map[string][]string `json:"tables,omitempty"`
	ForeignKeys map[string]string   `json:"foreign_keys,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// lookup resolves a database, writing 404 when it is unknown.
func (s *Server) lookup(w http.ResponseWriter, db string) (*catalog.Entry, bool) {
	entry, err := s.Catalog().Get(db)
	if err != nil {
		var unknown *catalog.UnknownDatabaseError
		if errors.As(err, &unknown) {
			writeError(w, http.StatusNotFound, err)
		} else {
			writeError(w, http.StatusInternalServerError, err)
		}
		return nil, false
	}
	return entry, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"databases": s.Catalog().Len(),
	})
}

func (s *Server) handleDatabases(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog().Names())
}

func (s *Server) handleDatabase(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, chi.URLParam(r, "db"))
	if !ok {
		return
	}
	info := DatabaseInfo{
		Name:        entry.Schema.Name(),
		Tables:      make(map[string][]string),
		ForeignKeys: entry.ForeignKeys,
	}
	for _, t := range entry.Schema.Tables() {
		cols, _ := entry.Schema.Columns(t)
		info.Tables[t] = cols
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Gold == "" {
		writeError(w, http.StatusBadRequest, errors.New("gold is required"))
		return
	}
	if _, ok := s.lookup(w, req.DB); !ok {
		return
	}

	res, err := bench.Evaluate(r.Context(), corpus.Case{
		ID:         "request",
		DB:         req.DB,
		Question:   req.Question,
		Gold:       req.Gold,
		Predicted:  req.Pred,
		GoldResult: req.GoldResult,
		PredResult: req.PredResult,
	}, s.Catalog(), s.opts)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if res.Skipped {
		writeError(w, http.StatusUnprocessableEntity, errors.New(res.Error))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	var req ExecRequest
	if !decode(w, r, &req) {
		return
	}
	opts := s.opts.Table
	opts.Ordered = opts.Ordered || req.Ordered
	opts.CompareHeader = opts.CompareHeader || req.CompareHeader
	writeJSON(w, http.StatusOK, tablematch.Match(req.Pred, req.Label, req.Question, opts))
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !decode(w, r, &req) {
		return
	}
	entry, ok := s.lookup(w, req.DB)
	if !ok {
		return
	}

	in, err := bench.Inspect(req.SQL, entry.Schema)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, parser.ErrAliasCollision) {
			status = http.StatusConflict
		}
		writeJSON(w, status, struct {
			*bench.Inspection
			Error string `json:"error"`
		}{in, err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// handleEvents streams catalog reloads as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ch := s.notifier.subscribe()
	defer s.notifier.unsubscribe(ch)

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-sse.Context().Done():
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("failed to encode reload event", slog.String("error", err.Error()))
				continue
			}
			if err := sse.Send(reloadEvent, []string{string(data)}); err != nil {
				s.logger.Debug("event stream closed", slog.String("error", err.Error()))
				return
			}
		}
	}
}
