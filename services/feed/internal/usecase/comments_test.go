package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reel-feed/pkg/apperr"
	"reel-feed/pkg/docstore"
	"reel-feed/pkg/logger"
	"reel-feed/pkg/queue"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/model"
	"reel-feed/services/feed/internal/repo/persistent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type commentFixture struct {
	store    *docstore.MemoryStore
	manager  *CommentStreamManager
	events   *MockEventPublisher
	reels    persistent.ReelRepository
	comments persistent.CommentRepository
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	store.SetClock(steppingClock())
	require.NoError(t, seedReels(ctx, store, testReel("r1", "seller", nil, 1), testReel("r2", "seller", nil, 1)))
	require.NoError(t, store.Set(ctx, model.CollectionUsers, "v1", map[string]interface{}{model.UserName: "Asha"}, false))

	events := new(MockEventPublisher)
	events.On("PublishInteraction", mock.Anything, mock.Anything).Return(nil).Maybe()

	reelRepo := persistent.NewReelRepository(store)
	commentRepo := persistent.NewCommentRepository(store)
	manager := NewCommentStreamManager(
		commentRepo,
		reelRepo,
		persistent.NewStoreProfileRepository(store),
		events,
		func(string) string { return "seller" },
		logger.Nop(),
	)
	return &commentFixture{store: store, manager: manager, events: events, reels: reelRepo, comments: commentRepo}
}

func (f *commentFixture) writeComment(t *testing.T, reelID, text string) {
	t.Helper()
	_, err := f.comments.Create(context.Background(), &entity.Comment{ReelID: reelID, UserID: "x", UserName: "X", Text: text})
	require.NoError(t, err)
}

func texts(snapshot CommentSnapshot) []string {
	out := make([]string, 0, len(snapshot.Comments))
	for _, c := range snapshot.Comments {
		out = append(out, c.Text)
	}
	return out
}

type recorder struct {
	mu        sync.Mutex
	snapshots []CommentSnapshot
}

func (r *recorder) listen(s CommentSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) last() CommentSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return CommentSnapshot{}
	}
	return r.snapshots[len(r.snapshots)-1]
}

func TestCommentStream_NewestFirst(t *testing.T) {
	f := newCommentFixture(t)
	f.writeComment(t, "r1", "t1")
	f.writeComment(t, "r1", "t2")
	f.writeComment(t, "r1", "t3")

	require.NoError(t, f.manager.Open(context.Background(), "r1"))
	assert.Equal(t, []string{"t3", "t2", "t1"}, texts(f.manager.Snapshot()))

	f.writeComment(t, "r1", "t4")
	assert.Equal(t, []string{"t4", "t3", "t2", "t1"}, texts(f.manager.Snapshot()))
}

func TestCommentStream_OpenReplacesSubscription(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	f.writeComment(t, "r2", "other")

	require.NoError(t, f.manager.Open(ctx, "r1"))
	require.NoError(t, f.manager.Open(ctx, "r2"))

	assert.Equal(t, 0, f.store.ActiveSubscriptions(model.CommentsPath("r1")))
	assert.Equal(t, 1, f.store.ActiveSubscriptions(model.CommentsPath("r2")))

	f.writeComment(t, "r1", "late")
	snapshot := f.manager.Snapshot()
	assert.Equal(t, "r2", snapshot.ReelID)
	assert.Equal(t, []string{"other"}, texts(snapshot))
}

func TestCommentStream_StaleDeliveryDiscarded(t *testing.T) {
	f := newCommentFixture(t)
	require.NoError(t, f.manager.Open(context.Background(), "r1"))
	stale := f.manager.generation
	require.NoError(t, f.manager.Open(context.Background(), "r2"))

	f.manager.deliver(stale, "r1", []entity.Comment{{Text: "ghost"}})

	snapshot := f.manager.Snapshot()
	assert.Equal(t, "r2", snapshot.ReelID)
	assert.Empty(t, snapshot.Comments)
}

func TestCommentStream_WatchStartsWithCurrentList(t *testing.T) {
	f := newCommentFixture(t)
	f.writeComment(t, "r1", "first")
	require.NoError(t, f.manager.Open(context.Background(), "r1"))

	rec := &recorder{}
	remove := f.manager.Watch(rec.listen)
	defer remove()
	assert.Equal(t, []string{"first"}, texts(rec.last()))

	f.writeComment(t, "r1", "second")
	assert.Equal(t, []string{"second", "first"}, texts(rec.last()))
}

func TestCommentStream_CloseClearsAndNotifies(t *testing.T) {
	f := newCommentFixture(t)
	rec := &recorder{}
	remove := f.manager.Watch(rec.listen)
	defer remove()

	f.writeComment(t, "r1", "hello")
	require.NoError(t, f.manager.Open(context.Background(), "r1"))
	assert.Equal(t, "r1", rec.last().ReelID)
	assert.Equal(t, []string{"hello"}, texts(rec.last()))

	f.manager.Close()
	assert.False(t, f.manager.IsOpen())
	assert.Equal(t, CommentSnapshot{}, f.manager.Snapshot())
	assert.Equal(t, "", rec.last().ReelID)
	assert.Equal(t, 0, f.store.ActiveSubscriptions(model.CommentsPath("r1")))

	f.writeComment(t, "r1", "after close")
	assert.Equal(t, "", rec.last().ReelID)

	// closing twice is a no-op
	f.manager.Close()
}

func TestCommentStream_ListenerRemoval(t *testing.T) {
	f := newCommentFixture(t)
	rec := &recorder{}
	remove := f.manager.Watch(rec.listen)
	require.NoError(t, f.manager.Open(context.Background(), "r1"))
	remove()
	remove()

	f.writeComment(t, "r1", "unseen")
	require.Len(t, rec.snapshots, 2)
	assert.Equal(t, CommentSnapshot{}, rec.snapshots[0], "watching a closed stream starts empty")
	assert.Equal(t, "r1", rec.snapshots[1].ReelID)
}

func TestAddComment_WritesCommentAndCounter(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.Open(ctx, "r1"))

	comment, err := f.manager.AddComment(ctx, "r1", "v1", "  love this  ")
	require.NoError(t, err)
	assert.Equal(t, "love this", comment.Text)
	assert.Equal(t, "Asha", comment.UserName)
	assert.NotEmpty(t, comment.ID)

	snapshot := f.manager.Snapshot()
	require.Len(t, snapshot.Comments, 1)
	assert.Equal(t, "love this", snapshot.Comments[0].Text)
	assert.Equal(t, "Asha", snapshot.Comments[0].UserName)
	assert.False(t, snapshot.Comments[0].Timestamp.IsZero())

	reel, err := f.reels.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), reel.CommentsCount)

	assert.Eventually(t, func() bool { return len(f.events.Published()) == 1 }, time.Second, 5*time.Millisecond)
	event := f.events.Published()[0]
	assert.Equal(t, queue.EventComment, event.Type)
	assert.Equal(t, "love this", event.Preview)
}

func TestAddComment_UnknownAuthorName(t *testing.T) {
	f := newCommentFixture(t)
	comment, err := f.manager.AddComment(context.Background(), "r1", "stranger", "hi")
	require.NoError(t, err)
	assert.Equal(t, entity.UnknownUserName, comment.UserName)
}

func TestAddComment_Validation(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	_, err := f.manager.AddComment(ctx, "r1", "", "hi")
	assert.True(t, apperr.IsNotAuthenticated(err))

	_, err = f.manager.AddComment(ctx, "r1", "v1", "   \n\t")
	assert.True(t, apperr.IsValidation(err))

	records, err := f.store.GetAll(ctx, model.CommentsPath("r1"))
	require.NoError(t, err)
	assert.Empty(t, records)

	reel, err := f.reels.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), reel.CommentsCount)
}

func TestAddComment_CreateFailureSkipsCounter(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	f.store.SetFaultHook(func(op docstore.Op, collection, id string) error {
		if op == docstore.OpCreate {
			return errors.New("unavailable")
		}
		return nil
	})

	_, err := f.manager.AddComment(ctx, "r1", "v1", "hi")
	assert.Equal(t, apperr.KindRemoteWrite, apperr.KindOf(err))

	reel, err := f.reels.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), reel.CommentsCount)
}

func TestAddComment_CounterFailureKeepsComment(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	f.store.SetFaultHook(func(op docstore.Op, collection, id string) error {
		if op == docstore.OpIncrement {
			return errors.New("unavailable")
		}
		return nil
	})

	comment, err := f.manager.AddComment(ctx, "r1", "v1", "hi")
	assert.Equal(t, apperr.KindRemoteWrite, apperr.KindOf(err))
	require.NotNil(t, comment)

	records, err := f.store.GetAll(ctx, model.CommentsPath("r1"))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestShouldDismiss(t *testing.T) {
	tests := []struct {
		name    string
		gesture Gesture
		want    bool
	}{
		{"explicit close", Gesture{Kind: GestureClose}, true},
		{"explicit close inside surface", Gesture{Kind: GestureClose, InsideComments: true}, true},
		{"wheel outside", Gesture{Kind: GestureWheel}, true},
		{"wheel inside", Gesture{Kind: GestureWheel, InsideComments: true}, false},
		{"arrow up", Gesture{Kind: GestureKey, Key: "ArrowUp"}, true},
		{"arrow down", Gesture{Kind: GestureKey, Key: "ArrowDown"}, true},
		{"arrow while typing", Gesture{Kind: GestureKey, Key: "ArrowDown", TextInputFocused: true}, false},
		{"other key", Gesture{Kind: GestureKey, Key: "Enter"}, false},
		{"unknown kind", Gesture{Kind: "swipe"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldDismiss(tt.gesture))
		})
	}
}

func TestHandleGesture_OnlyClosesOpenStream(t *testing.T) {
	f := newCommentFixture(t)
	assert.False(t, f.manager.HandleGesture(Gesture{Kind: GestureClose}))

	require.NoError(t, f.manager.Open(context.Background(), "r1"))
	assert.False(t, f.manager.HandleGesture(Gesture{Kind: GestureWheel, InsideComments: true}))
	assert.True(t, f.manager.IsOpen())

	assert.True(t, f.manager.HandleGesture(Gesture{Kind: GestureKey, Key: "ArrowUp"}))
	assert.False(t, f.manager.IsOpen())
}
