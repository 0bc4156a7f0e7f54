package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/quillapp/quill-engine/internal/domain"
)

// Index wraps a Bleve index with record-collection operations. It
// implements the facade's Indexer contract: each collection write replaces
// that type's documents wholesale, which keeps the index consistent with
// storage without tracking individual deletions.
//
// All public methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex

	// Ids currently indexed per type, so a replace can delete what the new
	// collection no longer contains.
	known map[DocType]map[string]bool
}

// Options configures the search index.
type Options struct {
	// DataPath is the directory for index storage. Empty means a memory-only
	// index that does not survive restarts.
	DataPath string
	Logger   *slog.Logger
}

// mappingVersion is incremented whenever the index mapping changes, which
// triggers a rebuild on open.
const mappingVersion = "1"

// NewIndex creates or opens a search index. A corrupt or outdated on-disk
// index is removed and recreated; the collections are re-fed on the next
// write.
func NewIndex(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		return newIndex(index, "", logger), nil
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping outdated, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		opened, err := bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		} else {
			index = opened
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		created, err := bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		index = created
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return newIndex(index, indexPath, logger), nil
}

func newIndex(index bleve.Index, path string, logger *slog.Logger) *Index {
	return &Index{
		index:  index,
		path:   path,
		logger: logger,
		known: map[DocType]map[string]bool{
			DocTypePoem: {},
			DocTypeBook: {},
		},
	}
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexPoems replaces all poem documents with the given collection.
func (s *Index) IndexPoems(poems []domain.Poem) error {
	docs := make([]*Document, 0, len(poems))
	for _, p := range poems {
		docs = append(docs, PoemDocument(p))
	}
	return s.replace(DocTypePoem, docs)
}

// IndexBooks replaces all book documents with the given collection.
func (s *Index) IndexBooks(books []domain.Book) error {
	docs := make([]*Document, 0, len(books))
	for _, b := range books {
		docs = append(docs, BookDocument(b))
	}
	return s.replace(DocTypeBook, docs)
}

func (s *Index) replace(t DocType, docs []*Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]bool, len(docs))
	batch := s.index.NewBatch()
	for _, doc := range docs {
		next[doc.ID] = true
		if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}
	for id := range s.known[t] {
		if !next[id] {
			batch.Delete(id)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	s.known[t] = next
	return nil
}

// DocumentCount returns the total number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
