package usecase

import (
	"context"
	"sync"
	"time"

	"reel-feed/pkg/apperr"
	"reel-feed/pkg/logger"
	"reel-feed/pkg/metrics"
	"reel-feed/pkg/queue"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/repo/persistent"

	"github.com/google/uuid"
)

// SessionRepository is the session KV plus cleanup of a whole session.
type SessionRepository interface {
	SessionStore
	Delete(ctx context.Context, sessionID string) error
}

// MediaResolver turns a stored media locator into a playable URL.
// *s3.Client implements it.
type MediaResolver interface {
	ResolveURL(locator string) (string, error)
}

type Dependencies struct {
	Reels        persistent.ReelRepository
	Wishlist     persistent.WishlistRepository
	Comments     persistent.CommentRepository
	Profiles     persistent.ProfileRepository
	SessionStore SessionRepository
	Ordering     OrderingService
	// Events and Media are optional.
	Events        EventPublisher
	Media         MediaResolver
	PublicBaseURL string
	Logger        *logger.Logger
	Clock         func() time.Time
}

func (d Dependencies) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

type FeedRequest struct {
	PinnedReelID string
	Category     string
	Reload       bool
}

// FeedUseCase is the engine surface the transport layer drives. Every call
// names the session and the viewer making it; a session only answers to the
// viewer that opened it.
type FeedUseCase interface {
	// OpenSession starts a session. A non-empty resumeID reuses that id so a
	// stored order survives a restart of the process.
	OpenSession(ctx context.Context, viewerID, role, resumeID string) (string, error)
	CloseSession(ctx context.Context, sessionID, viewerID string) error
	Feed(ctx context.Context, sessionID, viewerID string, req FeedRequest) (*FeedView, error)
	ToggleLike(ctx context.Context, sessionID, viewerID, reelID string) (*ReelView, error)
	ToggleWishlist(ctx context.Context, sessionID, viewerID, reelID string) (*ReelView, error)
	Share(ctx context.Context, sessionID, viewerID, reelID string) (string, error)
	OpenComments(ctx context.Context, sessionID, viewerID, reelID string) (*CommentsView, error)
	CloseComments(ctx context.Context, sessionID, viewerID string) error
	AddComment(ctx context.Context, sessionID, viewerID, reelID, text string) (*CommentView, error)
	Comments(ctx context.Context, sessionID, viewerID string) (*CommentsView, error)
	WatchComments(ctx context.Context, sessionID, viewerID string, fn CommentListener) (func(), error)
	Scroll(ctx context.Context, sessionID, viewerID string, offset, viewportHeight float64) (*PlaybackView, error)
	Tap(ctx context.Context, sessionID, viewerID string, index int) (*PlaybackView, error)
	DoubleTap(ctx context.Context, sessionID, viewerID string, index int) (*ReelView, error)
	Gesture(ctx context.Context, sessionID, viewerID string, g Gesture) (*GestureResult, error)
}

// Engine holds every live session.
type Engine struct {
	deps Dependencies

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewEngine(deps Dependencies) *Engine {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Ordering == nil {
		deps.Ordering = NewOrderingService(nil, deps.Logger)
	}
	return &Engine{deps: deps, sessions: make(map[string]*Session)}
}

var _ FeedUseCase = (*Engine)(nil)

func (e *Engine) OpenSession(ctx context.Context, viewerID, role, resumeID string) (string, error) {
	if resumeID != "" {
		if _, err := uuid.Parse(resumeID); err != nil {
			return "", apperr.Validation("Invalid session id")
		}
	}

	e.mu.Lock()
	if existing, ok := e.sessions[resumeID]; ok {
		if existing.ViewerID == viewerID {
			e.mu.Unlock()
			existing.touch()
			return existing.ID, nil
		}
		resumeID = ""
	}
	id := resumeID
	if id == "" {
		id = uuid.New().String()
	}
	s := newSession(id, viewerID, entity.Role(role), e.deps)
	e.sessions[s.ID] = s
	e.mu.Unlock()
	metrics.ActiveSessions.Inc()

	e.deps.Logger.Info("Opened session %s for viewer %q", s.ID, viewerID)
	return s.ID, nil
}

func (e *Engine) CloseSession(ctx context.Context, sessionID, viewerID string) error {
	s, err := e.session(sessionID, viewerID)
	if err != nil {
		return err
	}
	e.remove(ctx, s)
	return nil
}

func (e *Engine) remove(ctx context.Context, s *Session) {
	e.mu.Lock()
	_, ok := e.sessions[s.ID]
	delete(e.sessions, s.ID)
	e.mu.Unlock()
	if !ok {
		return
	}
	metrics.ActiveSessions.Dec()

	s.close()
	if err := e.deps.SessionStore.Delete(ctx, s.ID); err != nil {
		e.deps.Logger.Warn("Failed to clear stored state of session %s: %v", s.ID, err)
	}
	e.deps.Logger.Info("Closed session %s", s.ID)
}

// session looks up a session owned by viewerID.
func (e *Engine) session(sessionID, viewerID string) (*Session, error) {
	e.mu.RLock()
	s, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok || s.ViewerID != viewerID {
		return nil, apperr.NotFound("Session not found")
	}
	s.touch()
	return s, nil
}

// loadedSession also loads the feed on first use.
func (e *Engine) loadedSession(ctx context.Context, sessionID, viewerID string) (*Session, error) {
	s, err := e.session(sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	if loaded, _ := s.Loaded(); !loaded {
		if err := s.Load(ctx, ""); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (e *Engine) Feed(ctx context.Context, sessionID, viewerID string, req FeedRequest) (*FeedView, error) {
	s, err := e.session(sessionID, viewerID)
	if err != nil {
		return nil, err
	}

	loaded, pinned := s.Loaded()
	if !loaded || req.Reload || (req.PinnedReelID != "" && req.PinnedReelID != pinned) {
		if err := s.Load(ctx, req.PinnedReelID); err != nil {
			return nil, err
		}
	}
	s.SetCategory(req.Category)
	return s.View(), nil
}

func (e *Engine) ToggleLike(ctx context.Context, sessionID, viewerID, reelID string) (*ReelView, error) {
	s, err := e.loadedSession(ctx, sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	return e.toggleLike(ctx, s, reelID)
}

func (e *Engine) toggleLike(ctx context.Context, s *Session, reelID string) (*ReelView, error) {
	_, err := s.social.ToggleLike(ctx, reelID, s.ViewerID)
	return reelResult(s, reelID, err)
}

func (e *Engine) ToggleWishlist(ctx context.Context, sessionID, viewerID, reelID string) (*ReelView, error) {
	s, err := e.loadedSession(ctx, sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	_, err = s.social.ToggleWishlist(ctx, reelID, s.ViewerID)
	return reelResult(s, reelID, err)
}

// reelResult returns the reel's view alongside write failures so callers
// can show the unsynced state.
func reelResult(s *Session, reelID string, err error) (*ReelView, error) {
	switch apperr.KindOf(err) {
	case apperr.KindRemoteWrite, apperr.KindPartialBatch:
		view, _ := s.ReelView(reelID)
		return view, err
	}
	if err != nil {
		return nil, err
	}
	view, ok := s.ReelView(reelID)
	if !ok {
		return nil, apperr.NotFound("Reel not found")
	}
	return view, nil
}

func (e *Engine) Share(ctx context.Context, sessionID, viewerID, reelID string) (string, error) {
	s, err := e.loadedSession(ctx, sessionID, viewerID)
	if err != nil {
		return "", err
	}
	reel, ok := s.social.Reel(reelID)
	if !ok {
		return "", apperr.NotFound("Reel not found")
	}
	notifySeller(e.deps.Events, e.deps.Logger, queue.InteractionEvent{
		Type:     queue.EventShare,
		SellerID: reel.SellerID,
		ActorID:  viewerID,
		ReelID:   reelID,
		Priority: 1,
	})
	return s.shareURL(reelID), nil
}

func (e *Engine) OpenComments(ctx context.Context, sessionID, viewerID, reelID string) (*CommentsView, error) {
	s, err := e.loadedSession(ctx, sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	if _, ok := s.social.Reel(reelID); !ok {
		return nil, apperr.NotFound("Reel not found")
	}
	if err := s.comments.Open(s.ctx, reelID); err != nil {
		return nil, err
	}
	return ToCommentsView(s.comments.Snapshot()), nil
}

func (e *Engine) CloseComments(ctx context.Context, sessionID, viewerID string) error {
	s, err := e.session(sessionID, viewerID)
	if err != nil {
		return err
	}
	s.comments.Close()
	return nil
}

func (e *Engine) AddComment(ctx context.Context, sessionID, viewerID, reelID, text string) (*CommentView, error) {
	s, err := e.loadedSession(ctx, sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	if viewerID == "" {
		return nil, apperr.ErrNotAuthenticated
	}
	if _, ok := s.social.Reel(reelID); !ok {
		return nil, apperr.NotFound("Reel not found")
	}
	comment, err := s.comments.AddComment(ctx, reelID, viewerID, text)
	if comment == nil {
		return nil, err
	}
	if err == nil {
		s.social.IncrementCommentCount(reelID)
	}
	view := toCommentView(*comment)
	return &view, err
}

func (e *Engine) Comments(ctx context.Context, sessionID, viewerID string) (*CommentsView, error) {
	s, err := e.session(sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	return ToCommentsView(s.comments.Snapshot()), nil
}

func (e *Engine) WatchComments(ctx context.Context, sessionID, viewerID string, fn CommentListener) (func(), error) {
	s, err := e.session(sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	return s.comments.Watch(fn), nil
}

func (e *Engine) Scroll(ctx context.Context, sessionID, viewerID string, offset, viewportHeight float64) (*PlaybackView, error) {
	s, err := e.loadedSession(ctx, sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.playback.Scroll(offset, viewportHeight); err != nil {
		return nil, err
	}
	return playbackView(s.playback), nil
}

func (e *Engine) Tap(ctx context.Context, sessionID, viewerID string, index int) (*PlaybackView, error) {
	s, err := e.loadedSession(ctx, sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.playback.Tap(index); err != nil {
		return nil, err
	}
	return playbackView(s.playback), nil
}

// DoubleTap likes or unlikes the reel at the visible index.
func (e *Engine) DoubleTap(ctx context.Context, sessionID, viewerID string, index int) (*ReelView, error) {
	s, err := e.loadedSession(ctx, sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	reelID, err := s.ReelAt(index)
	if err != nil {
		return nil, err
	}
	return e.toggleLike(ctx, s, reelID)
}

func (e *Engine) Gesture(ctx context.Context, sessionID, viewerID string, g Gesture) (*GestureResult, error) {
	s, err := e.session(sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	return &GestureResult{Dismissed: s.comments.HandleGesture(g)}, nil
}

func playbackView(p *PlaybackCoordinator) *PlaybackView {
	view := &PlaybackView{CurrentIndex: p.Current(), Playing: []int{}}
	for i := 0; i < p.Count(); i++ {
		if p.IsPlaying(i) {
			view.Playing = append(view.Playing, i)
		}
	}
	return view
}

// ReapIdle closes sessions untouched for longer than ttl and returns how
// many it closed.
func (e *Engine) ReapIdle(ctx context.Context, ttl time.Duration) int {
	cutoff := e.deps.now().Add(-ttl)

	e.mu.RLock()
	var idle []*Session
	for _, s := range e.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
		}
	}
	e.mu.RUnlock()

	for _, s := range idle {
		e.remove(ctx, s)
	}
	return len(idle)
}

// RunJanitor reaps idle sessions every interval until ctx is done.
func (e *Engine) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := e.ReapIdle(ctx, ttl); n > 0 {
				e.deps.Logger.Info("Reaped %d idle sessions", n)
			}
		}
	}
}

// Shutdown closes every session but keeps their stored order for resumption.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	sessions := e.sessions
	e.sessions = make(map[string]*Session)
	e.mu.Unlock()

	for _, s := range sessions {
		s.close()
		metrics.ActiveSessions.Dec()
	}
}
