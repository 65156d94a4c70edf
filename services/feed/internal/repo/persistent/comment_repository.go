package persistent

import (
	"context"
	"sort"

	"reel-feed/pkg/docstore"
	"reel-feed/services/feed/internal/entity"
	"reel-feed/services/feed/internal/model"
)

type CommentRepository interface {
	// Create writes the comment with a server-assigned timestamp.
	Create(ctx context.Context, comment *entity.Comment) (string, error)
	// Subscribe delivers the reel's full comment list, newest first, on
	// every change until the subscription is stopped.
	Subscribe(ctx context.Context, reelID string, fn func([]entity.Comment)) (docstore.Subscription, error)
}

type commentRepository struct {
	store docstore.Store
}

func NewCommentRepository(store docstore.Store) CommentRepository {
	return &commentRepository{store: store}
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) (string, error) {
	return r.store.Create(ctx, model.CommentsPath(comment.ReelID), ToCommentFields(comment))
}

func (r *commentRepository) Subscribe(ctx context.Context, reelID string, fn func([]entity.Comment)) (docstore.Subscription, error) {
	order := docstore.OrderBy{Field: model.CommentTimestamp, Direction: docstore.Desc}
	return r.store.Subscribe(ctx, model.CommentsPath(reelID), order, func(records []docstore.Record) {
		comments := make([]entity.Comment, 0, len(records))
		for _, rec := range records {
			comments = append(comments, ToCommentEntity(reelID, rec))
		}
		SortNewestFirst(comments)
		fn(comments)
	})
}

// SortNewestFirst orders comments by timestamp descending, keeping the
// store's order among equal timestamps.
func SortNewestFirst(comments []entity.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Timestamp.After(comments[j].Timestamp)
	})
}
