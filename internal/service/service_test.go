package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"repoexplorer/internal/repository"
	"repoexplorer/internal/repository/sqlite"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates a file-backed store seeded with
// /content/{docs/{a,b},media} and /archive
func newTestRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "explorer.db"))
	require.NoError(t, err, "failed to create test repository")
	t.Cleanup(func() {
		repo.Close()
	})

	ctx := context.Background()
	sess := login(t, repo)
	addNode(t, sess, "/", "content", "nt:folder")
	docs := addNode(t, sess, "/content", "docs", "nt:folder")
	addNode(t, sess, "/content", "media", "nt:folder")
	addNode(t, sess, "/", "archive", "nt:folder")
	a := addNode(t, sess, "/content/docs", "a", "nt:unstructured")
	b := addNode(t, sess, "/content/docs", "b", "nt:unstructured")
	require.NoError(t, a.SetProperty(ctx, "title", repository.StringValue("Quarterly Report")))
	require.NoError(t, b.SetProperty(ctx, "title", repository.StringValue("Holiday photos")))
	require.NoError(t, docs.AddMixin(ctx, "mix:title"))
	require.NoError(t, sess.Save(ctx))
	return repo
}

// login opens a session that is logged out when the test ends
func login(t *testing.T, repo *sqlite.Repository) repository.Session {
	t.Helper()
	sess, err := repo.Login(context.Background())
	require.NoError(t, err)
	t.Cleanup(sess.Logout)
	return sess
}

func addNode(t *testing.T, sess repository.Session, parent, name, primaryType string) repository.Node {
	t.Helper()
	ctx := context.Background()
	p, err := sess.Node(ctx, parent)
	require.NoError(t, err)
	n, err := p.AddNode(ctx, name, primaryType)
	require.NoError(t, err)
	return n
}

// exists checks path through a fresh session so only committed state is seen
func exists(t *testing.T, repo *sqlite.Repository, path string) bool {
	t.Helper()
	sess, err := repo.Login(context.Background())
	require.NoError(t, err)
	defer sess.Logout()
	ok, err := sess.NodeExists(context.Background(), path)
	require.NoError(t, err)
	return ok
}

// subscribe returns a buffered channel receiving bus events
func subscribe(t *testing.T, bus *EventBus) chan Event {
	t.Helper()
	ch := make(chan Event, 16)
	bus.Subscribe(ch)
	t.Cleanup(func() { bus.Unsubscribe(ch) })
	return ch
}

// nextEvent waits briefly for the next event
func nextEvent(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
	return Event{}
}
