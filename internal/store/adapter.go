package store

import (
	"encoding/json/v2"
	"log/slog"
	"sync"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/merge"
	"github.com/quillapp/quill-engine/internal/normalize"
	"github.com/quillapp/quill-engine/internal/scope"
)

// Key layout. Collections are partitioned per scope and per domain; the
// unsplit legacy key predates the poem/book split.
const (
	poemsKeyPrefix  = "records:poems:"
	booksKeyPrefix  = "records:books:"
	legacyKeyPrefix = "records:"
	markerKeyPrefix = "migrated:anonymous:"
)

// Adapter reads and writes scoped record collections. Reads never fail: a
// missing, corrupt, or wrongly-shaped value yields an empty collection.
// Writes are best-effort: storage errors are logged and swallowed because
// local persistence must never block the caller.
//
// A single mutex serializes all collection operations. The background pull
// merges remote state through MergePoems/MergeBooks, so its read-merge-write
// can never interleave with a facade persist and drop the newer edit; the
// merge engine's timestamps decide every conflict.
type Adapter struct {
	kv     KV
	norm   *normalize.Normalizer
	logger *slog.Logger
	mu     sync.Mutex
}

// NewAdapter creates an adapter over the given KV backend.
func NewAdapter(kv KV, norm *normalize.Normalizer, logger *slog.Logger) *Adapter {
	if norm == nil {
		norm = normalize.New()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{kv: kv, norm: norm, logger: logger}
}

// ReadPoems returns the poem collection for a scope. Every stored record
// passes through the normalizer; nothing from storage is trusted raw.
func (a *Adapter) ReadPoems(sc scope.ID) []domain.Poem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readPoems(sc)
}

// WritePoems persists the poem collection for a scope.
func (a *Adapter) WritePoems(sc scope.ID, poems []domain.Poem) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.writeRaw(poemsKeyPrefix+sc.String(), poems)
}

// MergePoems folds an incoming collection into the stored one atomically and
// returns the result. The stored collection is the second merge operand, so
// it wins exact timestamp ties; incoming records only replace stored state by
// being strictly newer.
func (a *Adapter) MergePoems(sc scope.ID, incoming []domain.Poem) []domain.Poem {
	a.mu.Lock()
	defer a.mu.Unlock()
	merged := merge.Poems(incoming, a.readPoems(sc))
	a.writeRaw(poemsKeyPrefix+sc.String(), merged)
	return merged
}

// ReadBooks returns the book collection for a scope.
func (a *Adapter) ReadBooks(sc scope.ID) []domain.Book {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readBooks(sc)
}

// WriteBooks persists the book collection for a scope.
func (a *Adapter) WriteBooks(sc scope.ID, books []domain.Book) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.writeRaw(booksKeyPrefix+sc.String(), books)
}

// MergeBooks folds an incoming collection into the stored one atomically;
// stored records win exact timestamp ties.
func (a *Adapter) MergeBooks(sc scope.ID, incoming []domain.Book) []domain.Book {
	a.mu.Lock()
	defer a.mu.Unlock()
	merged := merge.Books(incoming, a.readBooks(sc))
	a.writeRaw(booksKeyPrefix+sc.String(), merged)
	return merged
}

// MigrateLegacy folds the pre-split single-table collection for a scope into
// the split poem and book collections, then removes the legacy key. Safe to
// call on every load; it is a no-op once the key is gone.
func (a *Adapter) MigrateLegacy(sc scope.ID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.migrateLegacy(sc)
}

func (a *Adapter) migrateLegacy(sc scope.ID) {
	legacyKey := legacyKeyPrefix + sc.String()
	raws := a.readRaw(legacyKey)
	if len(raws) == 0 {
		return
	}

	var poems []domain.Poem
	var books []domain.Book
	for _, raw := range raws {
		switch a.norm.Detect(raw) {
		case domain.TypeBook:
			books = append(books, a.norm.Book(raw))
		default:
			poems = append(poems, a.norm.Poem(raw))
		}
	}

	// Current collections win ties: the legacy key has been dormant since
	// the split, so anything already in the split keys is at least as new.
	a.writeRaw(poemsKeyPrefix+sc.String(), merge.Poems(poems, a.readPoems(sc)))
	a.writeRaw(booksKeyPrefix+sc.String(), merge.Books(books, a.readBooks(sc)))

	if err := a.kv.Delete(legacyKey); err != nil {
		a.logger.Warn("failed to remove legacy records key", "key", legacyKey, "error", err)
	}
	a.logger.Info("migrated legacy records", "scope", sc.String(), "poems", len(poems), "books", len(books))
}

// MigrateAnonymous merges the anonymous partition into an authenticated
// user's partition. Runs at most once per user scope (marker key); switching
// identity must never silently merge one user's records into another's.
// The anonymous legacy table is folded in first, so pre-split anonymous data
// is not stranded behind the one-time marker.
func (a *Adapter) MigrateAnonymous(user scope.ID) {
	if user.IsAnonymous() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	marker := markerKeyPrefix + user.String()
	if _, done := a.kv.Get(marker); done {
		return
	}

	a.migrateLegacy(scope.Anonymous)

	anonPoems := a.readPoems(scope.Anonymous)
	anonBooks := a.readBooks(scope.Anonymous)
	if len(anonPoems) > 0 || len(anonBooks) > 0 {
		// User scope is the second operand: it wins ties.
		a.writeRaw(poemsKeyPrefix+user.String(), merge.Poems(anonPoems, a.readPoems(user)))
		a.writeRaw(booksKeyPrefix+user.String(), merge.Books(anonBooks, a.readBooks(user)))
		a.writeRaw(poemsKeyPrefix+scope.Anonymous.String(), []domain.Poem(nil))
		a.writeRaw(booksKeyPrefix+scope.Anonymous.String(), []domain.Book(nil))
		a.logger.Info("migrated anonymous records", "scope", user.String(), "poems", len(anonPoems), "books", len(anonBooks))
	}

	if err := a.kv.Set(marker, "1"); err != nil {
		a.logger.Warn("failed to persist migration marker", "key", marker, "error", err)
	}
}

func (a *Adapter) readPoems(sc scope.ID) []domain.Poem {
	raws := a.readRaw(poemsKeyPrefix + sc.String())
	out := make([]domain.Poem, 0, len(raws))
	for _, raw := range raws {
		out = append(out, a.norm.Poem(raw))
	}
	return out
}

func (a *Adapter) readBooks(sc scope.ID) []domain.Book {
	raws := a.readRaw(booksKeyPrefix + sc.String())
	out := make([]domain.Book, 0, len(raws))
	for _, raw := range raws {
		out = append(out, a.norm.Book(raw))
	}
	return out
}

// envelope is the wrapped collection shape some releases persisted.
type envelope struct {
	Records []any `json:"records"`
}

// readRaw loads a serialized collection, accepting a bare array or a
// {records: [...]} wrapper. Anything else yields nil.
func (a *Adapter) readRaw(key string) []any {
	value, ok := a.kv.Get(key)
	if !ok || value == "" {
		return nil
	}

	var list []any
	if err := json.Unmarshal([]byte(value), &list); err == nil {
		return list
	}

	var env envelope
	if err := json.Unmarshal([]byte(value), &env); err == nil && env.Records != nil {
		return env.Records
	}

	a.logger.Warn("discarding corrupt collection", "key", key)
	return nil
}

// writeRaw serializes and persists a collection. Failures are swallowed.
func (a *Adapter) writeRaw(key string, records any) {
	data, err := json.Marshal(records)
	if err != nil {
		a.logger.Warn("failed to serialize collection", "key", key, "error", err)
		return
	}
	if err := a.kv.Set(key, string(data)); err != nil {
		a.logger.Warn("failed to persist collection", "key", key, "error", err)
	}
}
