package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"reel-feed/pkg/apperr"
	"reel-feed/pkg/docstore"
	"reel-feed/pkg/logger"
	"reel-feed/pkg/metrics"
	"reel-feed/pkg/queue"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/repo/persistent"
)

const commentPreviewRunes = 80

// CommentSnapshot is the full comment list of the open reel, newest first.
// An empty ReelID means the stream is closed.
type CommentSnapshot struct {
	ReelID   string
	Comments []entity.Comment
}

// CommentListener receives every snapshot. It runs on the store's delivery
// goroutine and must not block or call back into the manager.
type CommentListener func(CommentSnapshot)

type GestureKind string

const (
	GestureClose GestureKind = "close"
	GestureWheel GestureKind = "wheel"
	GestureKey   GestureKind = "key"
)

type Gesture struct {
	Kind GestureKind
	// Key is the pressed key name for GestureKey, e.g. "ArrowUp".
	Key string
	// InsideComments is set when the gesture target lies within the
	// comment surface.
	InsideComments   bool
	TextInputFocused bool
}

// ShouldDismiss reports whether a gesture closes the comment surface.
func ShouldDismiss(g Gesture) bool {
	switch g.Kind {
	case GestureClose:
		return true
	case GestureWheel:
		return !g.InsideComments
	case GestureKey:
		return (g.Key == "ArrowUp" || g.Key == "ArrowDown") && !g.TextInputFocused
	default:
		return false
	}
}

// CommentStreamManager owns at most one live comment subscription. Open and
// Close are the only operations that change which reel is streamed; a
// generation counter discards deliveries from subscriptions that have been
// replaced or closed.
//
// Locks are taken in the order store delivery, notifyMu, mu. Subscribe and
// Stop are always called with neither manager lock held.
type CommentStreamManager struct {
	notifyMu sync.Mutex

	mu           sync.Mutex
	open         bool
	reelID       string
	comments     []entity.Comment
	generation   uint64
	sub          docstore.Subscription
	listeners    map[int]CommentListener
	nextListener int

	commentRepo persistent.CommentRepository
	reelRepo    persistent.ReelRepository
	profileRepo persistent.ProfileRepository
	events      EventPublisher
	sellerOf    func(reelID string) string
	logger      *logger.Logger
}

// NewCommentStreamManager builds a closed manager. sellerOf resolves the
// owner of a reel for notifications and may be nil.
func NewCommentStreamManager(
	commentRepo persistent.CommentRepository,
	reelRepo persistent.ReelRepository,
	profileRepo persistent.ProfileRepository,
	events EventPublisher,
	sellerOf func(reelID string) string,
	log *logger.Logger,
) *CommentStreamManager {
	return &CommentStreamManager{
		listeners:   make(map[int]CommentListener),
		commentRepo: commentRepo,
		reelRepo:    reelRepo,
		profileRepo: profileRepo,
		events:      events,
		sellerOf:    sellerOf,
		logger:      log,
	}
}

// Open streams the comments of reelID, replacing any open stream. ctx bounds
// the lifetime of the subscription, not just the call.
func (m *CommentStreamManager) Open(ctx context.Context, reelID string) error {
	if reelID == "" {
		return apperr.Validation("Reel id is required")
	}

	m.mu.Lock()
	previous := m.sub
	m.generation++
	gen := m.generation
	m.sub = nil
	m.open = true
	m.reelID = reelID
	m.comments = nil
	m.mu.Unlock()

	if previous != nil {
		previous.Stop()
		metrics.ActiveCommentStreams.Dec()
	}

	sub, err := m.commentRepo.Subscribe(ctx, reelID, func(comments []entity.Comment) {
		m.deliver(gen, reelID, comments)
	})
	if err != nil {
		m.mu.Lock()
		if m.generation == gen {
			m.open = false
			m.reelID = ""
		}
		m.mu.Unlock()
		m.logger.Error("Failed to subscribe to comments of reel %s: %v", reelID, err)
		return apperr.Internal(err, "Could not load comments. Try again.")
	}

	m.mu.Lock()
	if m.generation != gen {
		// Closed or reopened while subscribing.
		m.mu.Unlock()
		sub.Stop()
		return nil
	}
	m.sub = sub
	m.mu.Unlock()
	metrics.ActiveCommentStreams.Inc()
	return nil
}

func (m *CommentStreamManager) deliver(gen uint64, reelID string, comments []entity.Comment) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if gen != m.generation || !m.open {
		m.mu.Unlock()
		return
	}
	m.comments = comments
	listeners := m.listenersLocked()
	m.mu.Unlock()

	emit(listeners, CommentSnapshot{ReelID: reelID, Comments: comments})
}

// Close stops the subscription and clears the list. Closing a closed
// manager does nothing.
func (m *CommentStreamManager) Close() {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return
	}
	m.generation++
	gen := m.generation
	sub := m.sub
	m.sub = nil
	m.open = false
	m.reelID = ""
	m.comments = nil
	m.mu.Unlock()

	if sub != nil {
		sub.Stop()
		metrics.ActiveCommentStreams.Dec()
	}

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	listeners := m.listenersLocked()
	m.mu.Unlock()
	emit(listeners, CommentSnapshot{})
}

// HandleGesture closes an open stream when the gesture dismisses the
// comment surface and reports whether it did.
func (m *CommentStreamManager) HandleGesture(g Gesture) bool {
	if !ShouldDismiss(g) {
		return false
	}
	m.mu.Lock()
	open := m.open
	m.mu.Unlock()
	if !open {
		return false
	}
	m.Close()
	return true
}

// Snapshot returns the current list. Callers get their own copy.
func (m *CommentStreamManager) Snapshot() CommentSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return CommentSnapshot{}
	}
	return CommentSnapshot{ReelID: m.reelID, Comments: append([]entity.Comment(nil), m.comments...)}
}

func (m *CommentStreamManager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Watch registers fn, hands it the current snapshot before any later
// delivery, and returns a function that removes it.
func (m *CommentStreamManager) Watch(fn CommentListener) func() {
	m.notifyMu.Lock()
	m.mu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	current := CommentSnapshot{}
	if m.open {
		current = CommentSnapshot{ReelID: m.reelID, Comments: m.comments}
	}
	m.mu.Unlock()
	emit([]CommentListener{fn}, current)
	m.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

func (m *CommentStreamManager) listenersLocked() []CommentListener {
	out := make([]CommentListener, 0, len(m.listeners))
	for id := 0; id < m.nextListener; id++ {
		if fn, ok := m.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func emit(listeners []CommentListener, snapshot CommentSnapshot) {
	for _, fn := range listeners {
		fn(CommentSnapshot{ReelID: snapshot.ReelID, Comments: append([]entity.Comment(nil), snapshot.Comments...)})
	}
}

// AddComment writes a comment and then bumps the reel's counter. The two
// writes are independent: if the counter update fails the comment stays
// and the error says so. The list is not updated locally; the stream
// delivers the new comment.
func (m *CommentStreamManager) AddComment(ctx context.Context, reelID, authorID, text string) (*entity.Comment, error) {
	if authorID == "" {
		return nil, apperr.ErrNotAuthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Comment cannot be empty")
	}
	if reelID == "" {
		return nil, apperr.Validation("Reel id is required")
	}

	comment := &entity.Comment{
		ReelID:   reelID,
		UserID:   authorID,
		UserName: m.displayName(ctx, authorID),
		Text:     text,
	}

	id, err := m.commentRepo.Create(ctx, comment)
	metrics.ObserveWrite("comment", err)
	if err != nil {
		m.logger.Error("Failed to add comment to reel %s: %v", reelID, err)
		return nil, apperr.RemoteWrite(err, "Could not post comment. Try again.")
	}
	comment.ID = id

	if m.sellerOf != nil {
		notifySeller(m.events, m.logger, queue.InteractionEvent{
			Type:     queue.EventComment,
			SellerID: m.sellerOf(reelID),
			ActorID:  authorID,
			ReelID:   reelID,
			Preview:  preview(text),
			Priority: 5,
		})
	}

	err = m.reelRepo.IncrementComments(ctx, reelID)
	metrics.ObserveWrite("comment_count", err)
	if err != nil {
		m.logger.Error("Comment %s posted but counter of reel %s not updated: %v", id, reelID, err)
		return comment, apperr.RemoteWrite(err, "Comment posted, but the comment count could not be updated.")
	}
	return comment, nil
}

func (m *CommentStreamManager) displayName(ctx context.Context, userID string) string {
	profile, err := m.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, persistent.ErrProfileNotFound) {
			m.logger.Warn("Failed to resolve display name for %s: %v", userID, err)
		}
		return entity.UnknownUserName
	}
	if strings.TrimSpace(profile.DisplayName) == "" {
		return entity.UnknownUserName
	}
	return profile.DisplayName
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= commentPreviewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:commentPreviewRunes]) + "..."
}
