package service

import (
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/exchange"
	"github.com/quillapp/quill-engine/internal/genre"
	"github.com/quillapp/quill-engine/internal/id"
	"github.com/quillapp/quill-engine/internal/normalize"
	"github.com/quillapp/quill-engine/internal/scope"
	"github.com/quillapp/quill-engine/internal/store"
	"github.com/quillapp/quill-engine/internal/syncer"
	"github.com/quillapp/quill-engine/internal/validation"
)

// Books is the book facade. Chapter operations maintain the invariant that a
// book always has at least one chapter and a valid active chapter pointer.
type Books struct {
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

// NewBooks creates the book facade. sync may be nil for a purely local
// engine.
func NewBooks(local *store.Adapter, scopes *scope.Resolver, sync *syncer.Coordinator, logger *slog.Logger) *Books {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Books{
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

// WithIndexer attaches a full-text indexer.
func (s *Books) WithIndexer(ix Indexer) *Books {
	s.index = ix
	return s
}

// GenreSuggestions returns the genre list offered when starting a new book.
// Genre stays free text on the record; these are just the common cases.
func GenreSuggestions() []genre.Genre {
	return slices.Clone(genre.Defaults)
}

// CreateBookInput is the validated input for Create.
type CreateBookInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Genre       string   `json:"genre" validate:"max=100"`
	Tags        []string `json:"tags"`
}

// Load returns the current scope's books, chapter invariant repaired.
// Pending storage migrations run first; a background pull is scheduled.
func (s *Books) Load() []domain.Book {
	sc := s.scope()
	s.migrate(sc)
	books := s.local.ReadBooks(sc)
	if s.sync != nil {
		s.sync.PullBooks(sc)
	}
	return books
}

// Create validates input and appends a new draft book with a single empty
// "Chapter 1".
func (s *Books) Create(input CreateBookInput) (domain.Book, error) {
	if err := s.validate.Validate(input); err != nil {
		return domain.Book{}, err
	}

	now := s.now().Format(time.RFC3339)
	ch := domain.Chapter{ID: s.newID("ch"), Title: "Chapter 1"}
	b := domain.Book{
		ID:              s.newID("book"),
		Title:           input.Title,
		Description:     input.Description,
		Genre:           input.Genre,
		Tags:            normalize.Tags(input.Tags),
		Chapters:        []domain.Chapter{ch},
		ActiveChapterID: ch.ID,
		CreatedAt:       now,
		LastEdited:      now,
	}
	b.SetStatus(domain.StatusDraft)

	sc := s.scope()
	s.persist(sc, append(s.local.ReadBooks(sc), b))
	return b, nil
}

// Update replaces the stored book with the same id wholesale, repairs the
// chapter invariant, and bumps its timestamp. Unknown ids are a no-op.
func (s *Books) Update(updated domain.Book) []domain.Book {
	return s.mutate(updated.ID, func(b *domain.Book) bool {
		*b = updated.Clone()
		b.SetStatus(b.Status)
		b.RepairChapters(s.newID("ch"))
		return true
	})
}

// SetStatus flips a book between draft and published.
func (s *Books) SetStatus(bookID, status string) []domain.Book {
	return s.mutate(bookID, func(b *domain.Book) bool {
		b.SetStatus(status)
		return true
	})
}

// Delete removes a book by id. Unknown ids are a no-op.
func (s *Books) Delete(bookID string) []domain.Book {
	sc := s.scope()
	books := s.local.ReadBooks(sc)
	for i := range books {
		if books[i].ID != bookID {
			continue
		}
		next := append(books[:i:i], books[i+1:]...)
		return s.persist(sc, next)
	}
	return books
}

// Duplicate copies a book under a fresh identity: new book and chapter ids,
// new timestamps, " (Copy)" title suffix. Unknown ids are a no-op.
func (s *Books) Duplicate(bookID string) []domain.Book {
	sc := s.scope()
	books := s.local.ReadBooks(sc)
	for i := range books {
		if books[i].ID != bookID {
			continue
		}
		copyOf := books[i].Clone()
		copyOf.ID = s.newID("book")
		copyOf.Title += " (Copy)"
		for j := range copyOf.Chapters {
			chID := s.newID("ch")
			if copyOf.Chapters[j].ID == copyOf.ActiveChapterID {
				copyOf.ActiveChapterID = chID
			}
			copyOf.Chapters[j].ID = chID
		}
		now := s.now().Format(time.RFC3339)
		copyOf.CreatedAt = now
		copyOf.LastEdited = now
		return s.persist(sc, append(books, copyOf))
	}
	return books
}

// AddChapter appends a chapter to a book and makes it active. An empty title
// gets the positional default ("Chapter N"). Unknown book ids are a no-op.
func (s *Books) AddChapter(bookID, title string) []domain.Book {
	return s.mutate(bookID, func(b *domain.Book) bool {
		if title == "" {
			title = "Chapter " + strconv.Itoa(len(b.Chapters)+1)
		}
		ch := domain.Chapter{ID: s.newID("ch"), Title: title}
		b.Chapters = append(b.Chapters, ch)
		b.ActiveChapterID = ch.ID
		return true
	})
}

// UpdateChapter replaces a chapter's title and content by id. Unknown book
// or chapter ids are a no-op.
func (s *Books) UpdateChapter(bookID string, chapter domain.Chapter) []domain.Book {
	return s.mutate(bookID, func(b *domain.Book) bool {
		existing := b.ChapterByID(chapter.ID)
		if existing == nil {
			return false
		}
		existing.Title = chapter.Title
		existing.Content = chapter.Content
		return true
	})
}

// DeleteChapter removes a chapter. The last remaining chapter can never be
// deleted; a dangling active pointer moves to the first chapter.
func (s *Books) DeleteChapter(bookID, chapterID string) []domain.Book {
	return s.mutate(bookID, func(b *domain.Book) bool {
		if len(b.Chapters) <= 1 {
			return false
		}
		for i := range b.Chapters {
			if b.Chapters[i].ID != chapterID {
				continue
			}
			b.Chapters = append(b.Chapters[:i:i], b.Chapters[i+1:]...)
			if b.ActiveChapterID == chapterID {
				b.ActiveChapterID = b.Chapters[0].ID
			}
			return true
		}
		return false
	})
}

// SetActiveChapter moves the active chapter pointer. Unknown chapter ids are
// a no-op.
func (s *Books) SetActiveChapter(bookID, chapterID string) []domain.Book {
	return s.mutate(bookID, func(b *domain.Book) bool {
		if b.ChapterByID(chapterID) == nil {
			return false
		}
		b.ActiveChapterID = chapterID
		return true
	})
}

// ExportJSON serializes the current scope's books as a versioned document.
func (s *Books) ExportJSON() ([]byte, error) {
	return exchange.ExportJSON(s.local.ReadBooks(s.scope()))
}

// ImportJSON merges an interchange document into the current collection.
// Conflicts resolve by recency, the stored copy winning ties.
func (s *Books) ImportJSON(data []byte) ([]domain.Book, error) {
	imported, err := exchange.ImportBooks(data, s.norm)
	if err != nil {
		return nil, err
	}
	sc := s.scope()
	merged := s.local.MergeBooks(sc, imported)
	if s.sync != nil {
		s.sync.PushBooks(sc, merged)
	}
	if s.index != nil {
		if err := s.index.IndexBooks(merged); err != nil {
			s.logger.Warn("book indexing failed", "error", err)
		}
	}
	return merged, nil
}

// mutate applies fn to the book with the given id copy-on-write, bumps its
// timestamp, and persists. Unknown ids, or fn declining the edit, return the
// collection unchanged.
func (s *Books) mutate(bookID string, fn func(*domain.Book) bool) []domain.Book {
	sc := s.scope()
	books := s.local.ReadBooks(sc)
	for i := range books {
		if books[i].ID != bookID {
			continue
		}
		b := books[i].Clone()
		if !fn(&b) {
			return books
		}
		b.Touch(s.now())
		books[i] = b
		return s.persist(sc, books)
	}
	return books
}

func (s *Books) scope() scope.ID {
	return s.scopes.CurrentScope()
}

func (s *Books) migrate(sc scope.ID) {
	if !sc.IsAnonymous() {
		s.local.MigrateAnonymous(sc)
	}
	s.local.MigrateLegacy(sc)
}

func (s *Books) persist(sc scope.ID, books []domain.Book) []domain.Book {
	s.local.WriteBooks(sc, books)
	if s.sync != nil {
		s.sync.PushBooks(sc, books)
	}
	if s.index != nil {
		if err := s.index.IndexBooks(books); err != nil {
			s.logger.Warn("book indexing failed", "error", err)
		}
	}
	return books
}
