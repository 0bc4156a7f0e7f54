// Package service is the CRUD facade over the local store, merge engine,
// history, and sync coordinator. Facade reads never fail; mutations persist
// locally first and replicate best-effort in the background. The only errors
// callers see are input validation failures.
package service

import (
	"log/slog"
	"time"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/exchange"
	"github.com/quillapp/quill-engine/internal/history"
	"github.com/quillapp/quill-engine/internal/id"
	"github.com/quillapp/quill-engine/internal/normalize"
	"github.com/quillapp/quill-engine/internal/scope"
	"github.com/quillapp/quill-engine/internal/store"
	"github.com/quillapp/quill-engine/internal/syncer"
	"github.com/quillapp/quill-engine/internal/validation"
)

// Indexer receives collection updates for full-text indexing. Indexing is
// best-effort: failures are logged, never surfaced.
type Indexer interface {
	IndexPoems(poems []domain.Poem) error
	IndexBooks(books []domain.Book) error
}

// Poems is the poem facade. All operations resolve the current scope at call
// time, so a sign-in between calls transparently switches partitions.
type Poems struct {
	local  *store.Adapter
	scopes *scope.Resolver
	sync   *syncer.Coordinator
	index  Indexer

	validate *validation.Validator
	norm     *normalize.Normalizer
	logger   *slog.Logger
	now      func() time.Time
	newID    func(prefix string) string
}

// NewPoems creates the poem facade. sync may be nil for a purely local
// engine.
func NewPoems(local *store.Adapter, scopes *scope.Resolver, sync *syncer.Coordinator, logger *slog.Logger) *Poems {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poems{
		local:    local,
		scopes:   scopes,
		sync:     sync,
		validate: validation.New(),
		norm:     normalize.New(),
		logger:   logger,
		now:      time.Now,
		newID:    id.MustGenerate,
	}
}

// WithIndexer attaches a full-text indexer. Returns the facade for chaining.
func (s *Poems) WithIndexer(ix Indexer) *Poems {
	s.index = ix
	return s
}

// CreatePoemInput is the validated input for Create.
type CreatePoemInput struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content"`
	Date    string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Tags    []string `json:"tags"`
	Draft   bool     `json:"draft"`
}

// Load returns the current scope's poems. Pending storage migrations run
// first; a background pull is scheduled so a re-read observes remote edits.
func (s *Poems) Load() []domain.Poem {
	sc := s.scope()
	s.migrate(sc)
	poems := s.local.ReadPoems(sc)
	if s.sync != nil {
		s.sync.PullPoems(sc)
	}
	return poems
}

// Create validates input, appends a new poem, and persists. The new poem's
// date defaults to today.
func (s *Poems) Create(input CreatePoemInput) (domain.Poem, error) {
	if err := s.validate.Validate(input); err != nil {
		return domain.Poem{}, err
	}

	now := s.now()
	p := domain.Poem{
		ID:        s.newID("poem"),
		Title:     input.Title,
		Content:   input.Content,
		Date:      s.norm.Date(input.Date),
		Tags:      normalize.Tags(input.Tags),
		Draft:     input.Draft,
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
	}

	sc := s.scope()
	s.persist(sc, append(s.local.ReadPoems(sc), p))
	return p, nil
}

// Update replaces the stored poem with the same id wholesale and bumps its
// timestamp. Unknown ids are a no-op; the current collection is returned
// either way.
func (s *Poems) Update(updated domain.Poem) []domain.Poem {
	sc := s.scope()
	poems := s.local.ReadPoems(sc)
	for i := range poems {
		if poems[i].ID != updated.ID {
			continue
		}
		next := updated.Clone()
		next.Touch(s.now())
		poems[i] = next
		return s.persist(sc, poems)
	}
	return poems
}

// UpdateWithHistory applies a partial edit through the history engine: the
// pre-edit state is snapshotted (bounded, deduplicated) before the patch
// lands. Unknown ids are a no-op.
func (s *Poems) UpdateWithHistory(poemID string, patch history.Patch) []domain.Poem {
	sc := s.scope()
	poems := s.local.ReadPoems(sc)
	for i := range poems {
		if poems[i].ID != poemID {
			continue
		}
		poems[i] = history.ApplyEdit(poems[i], patch, history.DefaultOptions(), s.now)
		return s.persist(sc, poems)
	}
	return poems
}

// RestoreVersion rewinds a poem to one of its history snapshots. The
// overwritten state is not snapshotted; there is no redo.
func (s *Poems) RestoreVersion(poemID, versionID string) []domain.Poem {
	sc := s.scope()
	poems := s.local.ReadPoems(sc)
	for i := range poems {
		if poems[i].ID != poemID {
			continue
		}
		restored, ok := history.RestoreVersion(poems[i], versionID, s.now)
		if !ok {
			return poems
		}
		poems[i] = restored
		return s.persist(sc, poems)
	}
	return poems
}

// Delete removes a poem by id. Unknown ids are a no-op.
func (s *Poems) Delete(poemID string) []domain.Poem {
	sc := s.scope()
	poems := s.local.ReadPoems(sc)
	for i := range poems {
		if poems[i].ID != poemID {
			continue
		}
		next := append(poems[:i:i], poems[i+1:]...)
		return s.persist(sc, next)
	}
	return poems
}

// Duplicate copies a poem under a fresh identity: new id, new timestamps,
// " (Copy)" title suffix, empty history. Unknown ids are a no-op.
func (s *Poems) Duplicate(poemID string) []domain.Poem {
	sc := s.scope()
	poems := s.local.ReadPoems(sc)
	for i := range poems {
		if poems[i].ID != poemID {
			continue
		}
		copyOf := poems[i].Clone()
		copyOf.ID = s.newID("poem")
		copyOf.Title += " (Copy)"
		copyOf.Versions = nil
		now := s.now()
		copyOf.CreatedAt = now.UnixMilli()
		copyOf.UpdatedAt = now.UnixMilli()
		return s.persist(sc, append(poems, copyOf))
	}
	return poems
}

// ExportJSON serializes the current scope's poems as a versioned document.
func (s *Poems) ExportJSON() ([]byte, error) {
	return exchange.ExportJSON(s.local.ReadPoems(s.scope()))
}

// ExportCSV serializes the current scope's poems as CSV.
func (s *Poems) ExportCSV() ([]byte, error) {
	return exchange.ExportPoemsCSV(s.local.ReadPoems(s.scope()))
}

// ImportJSON merges an interchange document into the current collection.
// Conflicts resolve by recency, the stored copy winning ties; importing an
// old backup never clobbers newer local edits.
func (s *Poems) ImportJSON(data []byte) ([]domain.Poem, error) {
	imported, err := exchange.ImportPoems(data, s.norm)
	if err != nil {
		return nil, err
	}
	return s.importMerge(imported), nil
}

// ImportCSV merges a CSV document into the current collection, with the same
// conflict rules as ImportJSON.
func (s *Poems) ImportCSV(data []byte) ([]domain.Poem, error) {
	imported, err := exchange.ImportPoemsCSV(data, s.norm)
	if err != nil {
		return nil, err
	}
	return s.importMerge(imported), nil
}

func (s *Poems) importMerge(imported []domain.Poem) []domain.Poem {
	sc := s.scope()
	// Merge and persist atomically; stored records win ties, so re-importing
	// an old export never rolls back newer edits.
	merged := s.local.MergePoems(sc, imported)
	if s.sync != nil {
		s.sync.PushPoems(sc, merged)
	}
	if s.index != nil {
		if err := s.index.IndexPoems(merged); err != nil {
			s.logger.Warn("poem indexing failed", "error", err)
		}
	}
	return merged
}

func (s *Poems) scope() scope.ID {
	return s.scopes.CurrentScope()
}

// migrate runs the idempotent storage migrations for a scope: the legacy
// unsplit table, and on an authenticated scope the one-time anonymous merge.
func (s *Poems) migrate(sc scope.ID) {
	if !sc.IsAnonymous() {
		s.local.MigrateAnonymous(sc)
	}
	s.local.MigrateLegacy(sc)
}

func (s *Poems) persist(sc scope.ID, poems []domain.Poem) []domain.Poem {
	s.local.WritePoems(sc, poems)
	if s.sync != nil {
		s.sync.PushPoems(sc, poems)
	}
	if s.index != nil {
		if err := s.index.IndexPoems(poems); err != nil {
			s.logger.Warn("poem indexing failed", "error", err)
		}
	}
	return poems
}
