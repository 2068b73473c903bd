package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/repository"
)

func TestTargetPath(t *testing.T) {
	tests := []struct {
		source, destination, want string
	}{
		{"/content/docs/a", "/archive", "/archive/a"},
		{"/content/docs/a", "/", "/a"},
		{"/content/docs/a[2]", "/archive", "/archive/a"},
		{"/content/docs/a[1]", "/", "/a"},
	}

	for _, tt := range tests {
		t.Run(tt.source+" to "+tt.destination, func(t *testing.T) {
			assert.Equal(t, tt.want, TargetPath(tt.source, tt.destination))
		})
	}
}

func TestMutationService_Validation(t *testing.T) {
	svc := NewMutationService(nil)
	ctx := context.Background()

	// Every case must fail before the nil session is touched
	tests := []struct {
		name string
		call func() error
	}{
		{"add node without parent", func() error {
			_, err := svc.AddNode(ctx, nil, AddNodeRequest{Name: "x", PrimaryType: "nt:folder"})
			return err
		}},
		{"add node without type", func() error {
			_, err := svc.AddNode(ctx, nil, AddNodeRequest{ParentPath: "/", Name: "x"})
			return err
		}},
		{"add node with blank mixin", func() error {
			_, err := svc.AddNode(ctx, nil, AddNodeRequest{ParentPath: "/", Name: "x", PrimaryType: "nt:folder", MixinTypes: []string{" "}})
			return err
		}},
		{"mixin without type", func() error {
			_, err := svc.AddMixin(ctx, nil, MixinRequest{Path: "/content"})
			return err
		}},
		{"move without destination", func() error {
			_, err := svc.Move(ctx, nil, TransferRequest{Source: "/content"})
			return err
		}},
		{"rename without name", func() error {
			_, err := svc.Rename(ctx, nil, RenameRequest{Source: "/content", NewName: "  "})
			return err
		}},
		{"copy without source", func() error {
			_, err := svc.Copy(ctx, nil, TransferRequest{Destination: "/"})
			return err
		}},
		{"cut and paste without source", func() error {
			_, err := svc.CutAndPaste(ctx, nil, TransferRequest{Destination: "/"})
			return err
		}},
		{"delete without path", func() error {
			_, err := svc.DeleteNode(ctx, nil, DeleteRequest{})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), domain.ErrInvalidArgument)
		})
	}
}

func TestMutationService_AddNode(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	bus := NewEventBus()
	events := subscribe(t, bus)
	svc := NewMutationService(bus)
	ctx := context.Background()

	msg, err := svc.AddNode(ctx, sess, AddNodeRequest{
		ParentPath:  "/content",
		Name:        "reports",
		PrimaryType: "nt:folder",
		MixinTypes:  []string{"mix:title"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New node successfully created.", msg)
	assert.True(t, exists(t, repo, "/content/reports"))

	n, err := sess.Node(ctx, "/content/reports")
	require.NoError(t, err)
	assert.Equal(t, []string{"mix:title"}, n.MixinTypes())

	evt := nextEvent(t, events)
	assert.Equal(t, EventNodeAdded, evt.Type)

	t.Run("missing parent", func(t *testing.T) {
		_, err := svc.AddNode(ctx, sess, AddNodeRequest{ParentPath: "/nope", Name: "x", PrimaryType: "nt:folder"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("parent is a property", func(t *testing.T) {
		_, err := svc.AddNode(ctx, sess, AddNodeRequest{ParentPath: "/content/docs/a/title", Name: "x", PrimaryType: "nt:folder"})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("unknown mixin leaves nothing behind", func(t *testing.T) {
		_, err := svc.AddNode(ctx, sess, AddNodeRequest{
			ParentPath:  "/content",
			Name:        "broken",
			PrimaryType: "nt:folder",
			MixinTypes:  []string{"mix:nope"},
		})
		assert.ErrorIs(t, err, domain.ErrStore)
		assert.False(t, exists(t, repo, "/content/broken"))
	})
}

func TestMutationService_Mixins(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	svc := NewMutationService(NewEventBus())
	ctx := context.Background()

	msg, err := svc.AddMixin(ctx, sess, MixinRequest{Path: "/content/media", MixinType: "mix:referenceable"})
	require.NoError(t, err)
	assert.Equal(t, "Mixin type successfully added.", msg)

	msg, err = svc.RemoveMixin(ctx, sess, MixinRequest{Path: "/content/media", MixinType: "mix:referenceable"})
	require.NoError(t, err)
	assert.Equal(t, "Mixin type successfully removed.", msg)

	_, err = svc.RemoveMixin(ctx, sess, MixinRequest{Path: "/content/media", MixinType: "mix:title"})
	assert.ErrorIs(t, err, domain.ErrStore)
}

func TestMutationService_Move(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	svc := NewMutationService(NewEventBus())
	ctx := context.Background()

	msg, err := svc.Move(ctx, sess, TransferRequest{Source: "/content/docs/a", Destination: "/archive"})
	require.NoError(t, err)
	assert.Equal(t, "Successfully moved. /content/docs/a to /archive", msg)
	assert.True(t, exists(t, repo, "/archive/a"))
	assert.False(t, exists(t, repo, "/content/docs/a"))

	t.Run("sibling index is dropped from the target name", func(t *testing.T) {
		_, err := svc.Move(ctx, sess, TransferRequest{Source: "/content/docs/b[1]", Destination: "/archive"})
		require.NoError(t, err)
		assert.True(t, exists(t, repo, "/archive/b"))
	})

	t.Run("root destination", func(t *testing.T) {
		msg, err := svc.Move(ctx, sess, TransferRequest{Source: "/content/media", Destination: "/"})
		require.NoError(t, err)
		assert.Equal(t, "Successfully moved. /content/media to /", msg)
		assert.True(t, exists(t, repo, "/media"))
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := svc.Move(ctx, sess, TransferRequest{Source: "/nope", Destination: "/archive"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestMutationService_Rename(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	svc := NewMutationService(NewEventBus())

	msg, err := svc.Rename(context.Background(), sess, RenameRequest{Source: "/content/docs/a", NewName: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, "Successfully renamed from a to alpha", msg)
	assert.True(t, exists(t, repo, "/content/docs/alpha"))
	assert.False(t, exists(t, repo, "/content/docs/a"))
}

func TestMutationService_Copy(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	svc := NewMutationService(NewEventBus())

	msg, err := svc.Copy(context.Background(), sess, TransferRequest{Source: "/content/docs", Destination: "/archive"})
	require.NoError(t, err)
	assert.Equal(t, "Successfully copied /content/docs to /archive", msg)
	assert.True(t, exists(t, repo, "/archive/docs/a"))
	assert.True(t, exists(t, repo, "/content/docs/a"))
}

func TestMutationService_CutAndPaste(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	svc := NewMutationService(NewEventBus())
	ctx := context.Background()

	msg, err := svc.CutAndPaste(ctx, sess, TransferRequest{Source: "/content/docs/a", Destination: "/archive"})
	require.NoError(t, err)
	assert.Equal(t, "Successfully cut and pasted /content/docs/a to /archive", msg)
	assert.True(t, exists(t, repo, "/archive/a"))
	assert.False(t, exists(t, repo, "/content/docs/a"))

	t.Run("occupied target keeps the source", func(t *testing.T) {
		_, err := svc.Copy(ctx, sess, TransferRequest{Source: "/content/docs/b", Destination: "/archive"})
		require.NoError(t, err)

		_, err = svc.CutAndPaste(ctx, sess, TransferRequest{Source: "/content/docs/b", Destination: "/archive"})
		assert.ErrorIs(t, err, domain.ErrStore)
		assert.True(t, exists(t, repo, "/content/docs/b"))
	})
}

// stuckSession stages copies normally but refuses to remove any item
type stuckSession struct {
	repository.Session
}

func (s stuckSession) Item(ctx context.Context, path string) (repository.Item, error) {
	item, err := s.Session.Item(ctx, path)
	if err != nil {
		return nil, err
	}
	return stuckItem{item}, nil
}

type stuckItem struct {
	repository.Item
}

func (stuckItem) Remove(context.Context) error {
	return errors.New("item is locked")
}

func TestMutationService_CutAndPasteDiscardsCopyWhenRemoveFails(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	bus := NewEventBus()
	events := subscribe(t, bus)
	svc := NewMutationService(bus)
	ctx := context.Background()

	_, err := svc.CutAndPaste(ctx, stuckSession{sess}, TransferRequest{Source: "/content/docs/a", Destination: "/archive"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStore)

	ok, err := sess.NodeExists(ctx, "/archive/a")
	require.NoError(t, err)
	assert.False(t, ok, "staged copy must be discarded")

	assert.False(t, exists(t, repo, "/archive/a"))
	assert.True(t, exists(t, repo, "/content/docs/a"))
	assert.True(t, exists(t, repo, "/content/docs/b"))

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}
}

func TestMutationService_DeleteNode(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	bus := NewEventBus()
	events := subscribe(t, bus)
	svc := NewMutationService(bus)
	ctx := context.Background()

	msg, err := svc.DeleteNode(ctx, sess, DeleteRequest{Path: "/content/docs"})
	require.NoError(t, err)
	assert.Equal(t, "Successfully deleted. /content/docs", msg)
	assert.False(t, exists(t, repo, "/content/docs"))
	assert.False(t, exists(t, repo, "/content/docs/a"))
	assert.Equal(t, EventNodeDeleted, nextEvent(t, events).Type)

	_, err = svc.DeleteNode(ctx, sess, DeleteRequest{Path: "/content/docs"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMutationService_BulkMove(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	svc := NewMutationService(NewEventBus())
	ctx := context.Background()

	res, err := svc.BulkMove(ctx, sess, map[string]string{
		"/content/docs/a": "/archive",
		"/content/docs/b": "",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SucceededCount())
	assert.Equal(t, 1, res.FailedCount())
	assert.Equal(t, "Successfully moved 1 nodes, failed to move 1 nodes", res.Summary())
	assert.ErrorIs(t, res.Err(), domain.ErrPartialFailure)

	assert.True(t, exists(t, repo, "/archive/a"))
	assert.False(t, exists(t, repo, "/content/docs/a"))
	assert.True(t, exists(t, repo, "/content/docs/b"))
	assert.False(t, exists(t, repo, "/archive/b"))

	require.Len(t, res.Succeeded, 1)
	assert.Equal(t, "/archive/a", res.Succeeded[0].Target)
}

func TestMutationService_BulkCopy(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	svc := NewMutationService(NewEventBus())
	ctx := context.Background()

	res, err := svc.BulkCopy(ctx, sess, map[string]string{
		"/content/docs/a": "/archive",
		"/content/docs/b": "/",
		"/missing":        "/archive",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SucceededCount())
	assert.Equal(t, 1, res.FailedCount())
	assert.Equal(t, "/missing", res.Failed[0].Source)
	assert.NotEmpty(t, res.Failed[0].Reason)

	assert.True(t, exists(t, repo, "/archive/a"))
	assert.True(t, exists(t, repo, "/b"))
	assert.True(t, exists(t, repo, "/content/docs/a"))

	all, err := svc.BulkCopy(ctx, sess, map[string]string{"/content/media": "/archive"})
	require.NoError(t, err)
	assert.NoError(t, all.Err())
	assert.Equal(t, "Successfully copied 1 nodes", all.Summary())
}

func TestMutationService_BulkEmpty(t *testing.T) {
	svc := NewMutationService(nil)

	_, err := svc.BulkMove(context.Background(), nil, map[string]string{})
	assert.ErrorIs(t, err, domain.ErrEmptyRequest)

	_, err = svc.BulkCopy(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyRequest)
}
