package http

import (
	"errors"
	"net/http"
	"strconv"

	"reel-feed/pkg/apperr"
	"reel-feed/pkg/logger"
	"reel-feed/services/feed/internal/usecase"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feedUseCase usecase.FeedUseCase
	logger      *logger.Logger
}

func NewFeedHandler(feedUseCase usecase.FeedUseCase, logger *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedUseCase: feedUseCase,
		logger:      logger,
	}
}

type OpenSessionRequest struct {
	SessionID string `json:"session_id"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

type ScrollRequest struct {
	Offset         float64 `json:"offset"`
	ViewportHeight float64 `json:"viewport_height"`
}

type IndexRequest struct {
	Index *int `json:"index" binding:"required"`
}

type GestureRequest struct {
	Kind             string `json:"kind" binding:"required,oneof=close wheel key"`
	Key              string `json:"key"`
	InsideComments   bool   `json:"inside_comments"`
	TextInputFocused bool   `json:"text_input_focused"`
}

// respondError maps an engine error to its status and a notice the client
// can show as is.
func (h *FeedHandler) respondError(c *gin.Context, err error, extra gin.H) {
	status := apperr.HTTPStatus(err)
	body := gin.H{
		"error":  string(apperr.KindOf(err)),
		"notice": apperr.Notice(err),
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && len(appErr.Failed) > 0 {
		body["failed"] = appErr.Failed
	}
	for k, v := range extra {
		body[k] = v
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Warn("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, body)
}

// OpenSession godoc
// @Summary      Open a viewing session
// @Description  Starts a session, or resumes one by id so its stored order is reused
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body OpenSessionRequest false "Session to resume"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /sessions [post]
func (h *FeedHandler) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": string(apperr.KindValidation), "notice": err.Error()})
			return
		}
	}

	sessionID, err := h.feedUseCase.OpenSession(c.Request.Context(), c.GetString("user_id"), c.GetString("role"), req.SessionID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session_id": sessionID})
}

// CloseSession godoc
// @Summary      Close a viewing session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /sessions/{session_id} [delete]
func (h *FeedHandler) CloseSession(c *gin.Context) {
	if err := h.feedUseCase.CloseSession(c.Request.Context(), c.Param("session_id"), c.GetString("user_id")); err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session closed"})
}

// GetFeed godoc
// @Summary      Get the session feed
// @Description  Loads the feed on first use, optionally pinning a deep-linked reel first, and filters by category
// @Tags         feed
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        reel_id query string false "Reel to show first"
// @Param        category query string false "Category filter, All for none"
// @Param        reload query bool false "Reload reels from the store"
// @Success      200  {object}  usecase.FeedView
// @Failure      404  {object}  map[string]string
// @Router       /sessions/{session_id}/feed [get]
func (h *FeedHandler) GetFeed(c *gin.Context) {
	reload, _ := strconv.ParseBool(c.Query("reload"))
	req := usecase.FeedRequest{
		PinnedReelID: c.Query("reel_id"),
		Category:     c.Query("category"),
		Reload:       reload,
	}

	view, err := h.feedUseCase.Feed(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"), req)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ToggleLike godoc
// @Summary      Like or unlike a reel
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        reel_id path string true "Reel ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]interface{}
// @Router       /sessions/{session_id}/reels/{reel_id}/like [post]
func (h *FeedHandler) ToggleLike(c *gin.Context) {
	view, err := h.feedUseCase.ToggleLike(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"), c.Param("reel_id"))
	h.respondReel(c, view, err)
}

// ToggleWishlist godoc
// @Summary      Add or remove every outfit of a reel from the wishlist
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        reel_id path string true "Reel ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]interface{}
// @Router       /sessions/{session_id}/reels/{reel_id}/wishlist [post]
func (h *FeedHandler) ToggleWishlist(c *gin.Context) {
	view, err := h.feedUseCase.ToggleWishlist(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"), c.Param("reel_id"))
	h.respondReel(c, view, err)
}

func (h *FeedHandler) respondReel(c *gin.Context, view *usecase.ReelView, err error) {
	if err != nil {
		var extra gin.H
		if view != nil {
			extra = gin.H{"reel": view}
		}
		h.respondError(c, err, extra)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reel": view})
}

// ShareReel godoc
// @Summary      Get a share link for a reel
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        reel_id path string true "Reel ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /sessions/{session_id}/reels/{reel_id}/share [post]
func (h *FeedHandler) ShareReel(c *gin.Context) {
	link, err := h.feedUseCase.Share(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"), c.Param("reel_id"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": link})
}

// OpenComments godoc
// @Summary      Open the live comment stream of a reel
// @Description  Replaces any open stream in the session
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        reel_id path string true "Reel ID"
// @Success      200  {object}  usecase.CommentsView
// @Failure      404  {object}  map[string]string
// @Router       /sessions/{session_id}/reels/{reel_id}/comments/open [post]
func (h *FeedHandler) OpenComments(c *gin.Context) {
	view, err := h.feedUseCase.OpenComments(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"), c.Param("reel_id"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CloseComments godoc
// @Summary      Close the comment stream
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /sessions/{session_id}/comments [delete]
func (h *FeedHandler) CloseComments(c *gin.Context) {
	if err := h.feedUseCase.CloseComments(c.Request.Context(), c.Param("session_id"), c.GetString("user_id")); err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comments closed"})
}

// AddComment godoc
// @Summary      Comment on a reel
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        reel_id path string true "Reel ID"
// @Param        request body AddCommentRequest true "Comment text"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]interface{}
// @Router       /sessions/{session_id}/reels/{reel_id}/comments [post]
func (h *FeedHandler) AddComment(c *gin.Context) {
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(apperr.KindValidation), "notice": err.Error()})
		return
	}

	comment, err := h.feedUseCase.AddComment(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"), c.Param("reel_id"), req.Text)
	if err != nil {
		var extra gin.H
		if comment != nil {
			extra = gin.H{"comment": comment}
		}
		h.respondError(c, err, extra)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments godoc
// @Summary      Get the open comment list
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Success      200  {object}  usecase.CommentsView
// @Router       /sessions/{session_id}/comments [get]
func (h *FeedHandler) GetComments(c *gin.Context) {
	view, err := h.feedUseCase.Comments(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Scroll godoc
// @Summary      Report the scroll position
// @Tags         playback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        request body ScrollRequest true "Scroll offset and viewport height"
// @Success      200  {object}  usecase.PlaybackView
// @Failure      400  {object}  map[string]string
// @Router       /sessions/{session_id}/playback/scroll [post]
func (h *FeedHandler) Scroll(c *gin.Context) {
	var req ScrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(apperr.KindValidation), "notice": err.Error()})
		return
	}

	view, err := h.feedUseCase.Scroll(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"), req.Offset, req.ViewportHeight)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Tap godoc
// @Summary      Toggle playback of a reel
// @Tags         playback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        request body IndexRequest true "Visible reel index"
// @Success      200  {object}  usecase.PlaybackView
// @Failure      400  {object}  map[string]string
// @Router       /sessions/{session_id}/playback/tap [post]
func (h *FeedHandler) Tap(c *gin.Context) {
	var req IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(apperr.KindValidation), "notice": err.Error()})
		return
	}

	view, err := h.feedUseCase.Tap(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"), *req.Index)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DoubleTap godoc
// @Summary      Like or unlike the reel at a visible index
// @Tags         playback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        request body IndexRequest true "Visible reel index"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /sessions/{session_id}/playback/double-tap [post]
func (h *FeedHandler) DoubleTap(c *gin.Context) {
	var req IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(apperr.KindValidation), "notice": err.Error()})
		return
	}

	view, err := h.feedUseCase.DoubleTap(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"), *req.Index)
	h.respondReel(c, view, err)
}

// Gesture godoc
// @Summary      Report a gesture that may dismiss the comments
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        request body GestureRequest true "Gesture"
// @Success      200  {object}  usecase.GestureResult
// @Failure      400  {object}  map[string]string
// @Router       /sessions/{session_id}/gestures [post]
func (h *FeedHandler) Gesture(c *gin.Context) {
	var req GestureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(apperr.KindValidation), "notice": err.Error()})
		return
	}

	result, err := h.feedUseCase.Gesture(c.Request.Context(), c.Param("session_id"), c.GetString("user_id"), usecase.Gesture{
		Kind:             usecase.GestureKind(req.Kind),
		Key:              req.Key,
		InsideComments:   req.InsideComments,
		TextInputFocused: req.TextInputFocused,
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, result)
}
