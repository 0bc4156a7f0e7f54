package api

import (
	"encoding/json/v2"
	"io"
	"net/http"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/http/response"
	"github.com/quillapp/quill-engine/internal/merge"
)

// bulkRequest is the push payload: the client's full collection.
type bulkRequest struct {
	Records []any `json:"records"`
}

// handleListRecords returns the full stored collection for the caller's
// scope and kind. Collections are small enough that pagination would only
// complicate the reconciliation contract.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r.Context())

	switch kind(r) {
	case domain.TypeBook:
		response.OK(w, map[string]any{"records": s.store.ReadBooks(sc)}, s.logger)
	case domain.TypePoem:
		response.OK(w, map[string]any{"records": s.store.ReadPoems(sc)}, s.logger)
	default:
		response.Error(w, http.StatusBadRequest, "unknown record kind", s.logger)
	}
}

// handleBulkUpsert merges a pushed collection into the stored one. Per-id
// recency decides conflicts, the pushed copy winning ties, so repeated
// pushes are idempotent and a stale client cannot roll back newer records.
func (s *Server) handleBulkUpsert(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r.Context())

	k := kind(r)
	if !k.Valid() {
		response.Error(w, http.StatusBadRequest, "unknown record kind", s.logger)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPushBytes))
	if err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "payload too large", s.logger)
		return
	}
	var req bulkRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "malformed payload", s.logger)
		return
	}

	switch k {
	case domain.TypeBook:
		incoming := make([]domain.Book, 0, len(req.Records))
		for _, raw := range req.Records {
			incoming = append(incoming, s.norm.Book(raw))
		}
		s.store.WriteBooks(sc, merge.Books(s.store.ReadBooks(sc), incoming))
	default:
		incoming := make([]domain.Poem, 0, len(req.Records))
		for _, raw := range req.Records {
			incoming = append(incoming, s.norm.Poem(raw))
		}
		s.store.WritePoems(sc, merge.Poems(s.store.ReadPoems(sc), incoming))
	}

	s.logger.Debug("bulk upsert", "scope", sc.String(), "kind", k, "records", len(req.Records))
	response.OK(w, map[string]any{"ok": true, "upserted": len(req.Records)}, s.logger)
}

// maxPushBytes bounds a single push payload.
const maxPushBytes = 16 << 20

func kind(r *http.Request) domain.Type {
	return domain.Type(r.URL.Query().Get("kind"))
}
