package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"reel-feed/pkg/logger"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreStore struct {
	client *firestore.Client
	logger *logger.Logger
}

// NewFirestoreStore connects with the credentials file when one is given and
// falls back to application default credentials otherwise.
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string, log *logger.Logger) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	log.Info("Connected to Firestore project %s", projectID)
	return &FirestoreStore{client: client, logger: log}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) GetAll(ctx context.Context, collection string, order ...OrderBy) ([]Record, error) {
	q := s.client.Collection(collection).Query
	for _, o := range order {
		q = q.OrderBy(o.Field, toFirestoreDirection(o.Direction))
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return toRecords(docs), nil
}

func (s *FirestoreStore) GetByID(ctx context.Context, collection, id string) (*Record, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return &Record{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (s *FirestoreStore) Query(ctx context.Context, collection, field string, value interface{}) ([]Record, error) {
	docs, err := s.client.Collection(collection).Where(field, "==", value).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
	}
	return toRecords(docs), nil
}

func (s *FirestoreStore) Create(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, toFirestoreFields(fields))
	if err != nil {
		return "", fmt.Errorf("failed to create in %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error {
	var opts []firestore.SetOption
	if merge {
		opts = append(opts, firestore.MergeAll)
	}
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, toFirestoreFields(fields), opts...); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: toFirestoreValue(value)})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) IncrementField(ctx context.Context, collection, id, field string, delta int64) error {
	return s.Update(ctx, collection, id, map[string]interface{}{field: Increment(delta)})
}

func (s *FirestoreStore) Subscribe(ctx context.Context, collection string, order OrderBy, fn SnapshotFunc) (Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	q := s.client.Collection(collection).OrderBy(order.Field, toFirestoreDirection(order.Direction))
	it := q.Snapshots(subCtx)

	sub := &firestoreSubscription{cancel: cancel, it: it, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for {
			snap, err := it.Next()
			if err != nil {
				if errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled || subCtx.Err() != nil {
					return
				}
				s.logger.Error("Snapshot listener on %s failed: %v", collection, err)
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				s.logger.Error("Failed to read snapshot of %s: %v", collection, err)
				continue
			}
			fn(toRecords(docs))
		}
	}()

	return sub, nil
}

type firestoreSubscription struct {
	once   sync.Once
	cancel context.CancelFunc
	it     *firestore.QuerySnapshotIterator
	done   chan struct{}
}

func (f *firestoreSubscription) Stop() {
	f.once.Do(func() {
		f.cancel()
		f.it.Stop()
	})
}

func toRecords(docs []*firestore.DocumentSnapshot) []Record {
	out := make([]Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, Record{ID: doc.Ref.ID, Fields: doc.Data()})
	}
	return out
}

func toFirestoreDirection(d Direction) firestore.Direction {
	if d == Desc {
		return firestore.Desc
	}
	return firestore.Asc
}

func toFirestoreFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = toFirestoreValue(v)
	}
	return out
}

func toFirestoreValue(v interface{}) interface{} {
	switch t := v.(type) {
	case serverTimestamp:
		return firestore.ServerTimestamp
	case increment:
		return firestore.Increment(t.delta)
	case arrayUnion:
		return firestore.ArrayUnion(t.values...)
	case arrayRemove:
		return firestore.ArrayRemove(t.values...)
	default:
		return v
	}
}
