package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/normalize"
	"github.com/quillapp/quill-engine/internal/scope"
	"github.com/quillapp/quill-engine/internal/store"
)

// Timeouts. Pushes are fire-and-forget with a short leash; pulls are a
// little more patient but still bounded and cancellable.
const (
	DefaultPushTimeout = 1500 * time.Millisecond
	DefaultPullTimeout = 2500 * time.Millisecond
)

// Coordinator schedules best-effort replication. No retries, no user-visible
// errors: a failed push or pull is logged at debug level and forgotten. The
// merge engine's timestamp resolution — not arrival order — is what keeps a
// stale remote copy from clobbering newer local edits.
type Coordinator struct {
	client *Client
	local  *store.Adapter
	queue  *Queue
	norm   *normalize.Normalizer
	logger *slog.Logger

	pushTimeout time.Duration
	pullTimeout time.Duration
}

// NewCoordinator creates a coordinator. client may be nil (offline mode), in
// which case every operation is a no-op.
func NewCoordinator(client *Client, local *store.Adapter, queue *Queue, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		client:      client,
		local:       local,
		queue:       queue,
		norm:        normalize.New(),
		logger:      logger,
		pushTimeout: DefaultPushTimeout,
		pullTimeout: DefaultPullTimeout,
	}
}

// PushPoems replicates the poem collection for a scope. Returns immediately;
// never pushed for the anonymous scope.
func (c *Coordinator) PushPoems(sc scope.ID, poems []domain.Poem) {
	c.push(sc, domain.TypePoem, poems)
}

// PushBooks replicates the book collection for a scope.
func (c *Coordinator) PushBooks(sc scope.ID, books []domain.Book) {
	c.push(sc, domain.TypeBook, books)
}

func (c *Coordinator) push(sc scope.ID, kind domain.Type, records any) {
	if c.client == nil || sc.IsAnonymous() {
		return
	}
	c.queue.Submit("push-"+string(kind), c.pushTimeout, func(ctx context.Context) {
		if _, err := c.client.BulkUpsert(ctx, kind, records); err != nil {
			c.logger.Debug("push failed", "kind", kind, "scope", sc.String(), "error", err)
		}
	})
}

// PullPoems fetches the remote poem collection for a scope and merges it
// into local storage in the background. The caller's earlier synchronous
// read is not updated; re-reading after the merge observes the result.
func (c *Coordinator) PullPoems(sc scope.ID) {
	if c.client == nil || sc.IsAnonymous() {
		return
	}
	c.queue.Submit("pull-poems", c.pullTimeout, func(ctx context.Context) {
		raws, err := c.client.List(ctx, domain.TypePoem)
		if err != nil {
			c.logger.Debug("pull failed", "kind", domain.TypePoem, "scope", sc.String(), "error", err)
			return
		}
		remote := make([]domain.Poem, 0, len(raws))
		for _, raw := range raws {
			remote = append(remote, c.norm.Poem(raw))
		}
		// The adapter merges and persists under its lock, with local as the
		// tie-winning operand: a facade write can never interleave with this
		// read-merge-write, and a remote copy only replaces local state by
		// being strictly newer.
		c.local.MergePoems(sc, remote)
	})
}

// PullBooks fetches and merges the remote book collection for a scope.
func (c *Coordinator) PullBooks(sc scope.ID) {
	if c.client == nil || sc.IsAnonymous() {
		return
	}
	c.queue.Submit("pull-books", c.pullTimeout, func(ctx context.Context) {
		raws, err := c.client.List(ctx, domain.TypeBook)
		if err != nil {
			c.logger.Debug("pull failed", "kind", domain.TypeBook, "scope", sc.String(), "error", err)
			return
		}
		remote := make([]domain.Book, 0, len(raws))
		for _, raw := range raws {
			remote = append(remote, c.norm.Book(raw))
		}
		c.local.MergeBooks(sc, remote)
	})
}

// Flush waits for pending sync tasks. Test hook.
func (c *Coordinator) Flush() {
	c.queue.Flush()
}
