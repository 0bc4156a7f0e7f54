package providers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/quillapp/quill-engine/internal/config"
	"github.com/quillapp/quill-engine/internal/logger"
	"github.com/quillapp/quill-engine/internal/store"
	"github.com/quillapp/quill-engine/internal/store/sqlite"
)

// StoreHandle wraps the KV backend and its adapter for lifecycle management.
type StoreHandle struct {
	KV      store.KV
	Adapter *store.Adapter

	closer io.Closer
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.closer.Close()
}

// ProvideStore opens the configured KV backend and wraps it in the record
// adapter.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	var (
		kv     store.KV
		closer io.Closer
	)
	switch cfg.Data.Backend {
	case "sqlite":
		db, err := sqlite.Open(filepath.Join(cfg.Data.BasePath, "records.db"), log.Logger)
		if err != nil {
			return nil, err
		}
		kv, closer = db, db
	default:
		db, err := store.OpenBadger(filepath.Join(cfg.Data.BasePath, "records"), log.Logger)
		if err != nil {
			return nil, err
		}
		kv, closer = db, db
	}

	return &StoreHandle{
		KV:      kv,
		Adapter: store.NewAdapter(kv, nil, log.Logger),
		closer:  closer,
	}, nil
}
