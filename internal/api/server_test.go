package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/ratelimit"
	"github.com/quillapp/quill-engine/internal/scope"
	"github.com/quillapp/quill-engine/internal/store"
	"github.com/quillapp/quill-engine/internal/syncer"
)

type serverFixture struct {
	srv     *httptest.Server
	adapter *store.Adapter
	keyHex  string
}

func newServerFixture(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *serverFixture {
	t.Helper()
	keyHex := scope.NewSessionKey()
	resolver, err := scope.NewResolver(keyHex, nil)
	require.NoError(t, err)

	adapter := store.NewAdapter(store.NewMemory(), nil, nil)
	srv := httptest.NewServer(NewServer(adapter, resolver, limiter, nil))
	t.Cleanup(srv.Close)
	return &serverFixture{srv: srv, adapter: adapter, keyHex: keyHex}
}

func (f *serverFixture) client(t *testing.T, userID string) *syncer.Client {
	t.Helper()
	token, err := scope.NewSessionToken(f.keyHex, userID, time.Hour)
	require.NoError(t, err)
	return syncer.NewClient(f.srv.URL, scope.StaticSession(token), nil)
}

func TestHealthEndpoint(t *testing.T) {
	f := newServerFixture(t, nil)

	resp, err := http.Get(f.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPushThenList_RoundTrip(t *testing.T) {
	f := newServerFixture(t, nil)
	c := f.client(t, "user-1")
	ctx := context.Background()

	upserted, err := c.BulkUpsert(ctx, domain.TypePoem, []domain.Poem{
		{ID: "p1", Title: "Dawn", CreatedAt: 100, UpdatedAt: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, upserted)

	raws, err := c.List(ctx, domain.TypePoem)
	require.NoError(t, err)
	require.Len(t, raws, 1)

	// Server persisted under the authenticated scope.
	stored := f.adapter.ReadPoems("user-1")
	require.Len(t, stored, 1)
	assert.Equal(t, "Dawn", stored[0].Title)
}

func TestBulkUpsert_StalePushCannotRollBack(t *testing.T) {
	f := newServerFixture(t, nil)
	c := f.client(t, "user-1")
	ctx := context.Background()

	_, err := c.BulkUpsert(ctx, domain.TypePoem, []domain.Poem{
		{ID: "p1", Title: "newer", CreatedAt: 100, UpdatedAt: 200},
	})
	require.NoError(t, err)

	_, err = c.BulkUpsert(ctx, domain.TypePoem, []domain.Poem{
		{ID: "p1", Title: "stale", CreatedAt: 100, UpdatedAt: 100},
	})
	require.NoError(t, err)

	stored := f.adapter.ReadPoems("user-1")
	require.Len(t, stored, 1)
	assert.Equal(t, "newer", stored[0].Title)
}

func TestScopeIsolation(t *testing.T) {
	f := newServerFixture(t, nil)
	ctx := context.Background()

	_, err := f.client(t, "user-1").BulkUpsert(ctx, domain.TypePoem, []domain.Poem{{ID: "p1", Title: "mine", UpdatedAt: 100}})
	require.NoError(t, err)

	raws, err := f.client(t, "user-2").List(ctx, domain.TypePoem)
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestAuth_Rejections(t *testing.T) {
	f := newServerFixture(t, nil)

	// No token.
	resp, err := http.Get(f.srv.URL + "/api/v1/records?kind=poem")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Forged token.
	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/api/v1/records?kind=poem", nil)
	req.Header.Set("Authorization", "Bearer v4.local.garbage")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListRecords_UnknownKind(t *testing.T) {
	f := newServerFixture(t, nil)
	token, err := scope.NewSessionToken(f.keyHex, "user-1", time.Hour)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/api/v1/records?kind=song", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimit_PerScope(t *testing.T) {
	f := newServerFixture(t, ratelimit.New(1, 2))
	ctx := context.Background()

	c := f.client(t, "user-1")
	_, err := c.List(ctx, domain.TypePoem)
	require.NoError(t, err)
	_, err = c.List(ctx, domain.TypePoem)
	require.NoError(t, err)
	_, err = c.List(ctx, domain.TypePoem)
	require.Error(t, err)

	// A different scope has its own budget.
	_, err = f.client(t, "user-2").List(ctx, domain.TypePoem)
	assert.NoError(t, err)
}

func TestBooksRoundTrip(t *testing.T) {
	f := newServerFixture(t, nil)
	c := f.client(t, "user-1")
	ctx := context.Background()

	_, err := c.BulkUpsert(ctx, domain.TypeBook, []domain.Book{{
		ID: "b1", Title: "Novel",
		CreatedAt: "2024-01-01T00:00:00Z", LastEdited: "2024-01-02T00:00:00Z",
		Chapters: []domain.Chapter{{ID: "ch-1", Title: "Chapter 1"}},
	}})
	require.NoError(t, err)

	raws, err := c.List(ctx, domain.TypeBook)
	require.NoError(t, err)
	require.Len(t, raws, 1)
}
