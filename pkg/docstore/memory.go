package docstore

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Op names a store operation for fault injection.
type Op string

const (
	OpCreate    Op = "create"
	OpSet       Op = "set"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpIncrement Op = "increment"
)

// FaultHook lets local runs and tests fail selected writes. A non-nil return
// aborts the write with that error.
type FaultHook func(op Op, collection, id string) error

// MemoryStore is an in-process Store with live subscriptions. Snapshot
// callbacks run synchronously on the writer's goroutine, in write order;
// they may read from the store but must not write to it.
type MemoryStore struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	data     map[string]map[string]map[string]interface{}
	subs     map[string]map[int64]*memorySubscription
	nextSub  int64
	now      func() time.Time
	fault    FaultHook
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]map[string]interface{}),
		subs: make(map[string]map[int64]*memorySubscription),
		now:  time.Now,
	}
}

// SetClock replaces the clock used for ServerTimestamp.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) SetFaultHook(hook FaultHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = hook
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) GetAll(ctx context.Context, collection string, order ...OrderBy) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(collection, order...), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, collection, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Record{ID: id, Fields: copyFields(fields)}, nil
}

func (s *MemoryStore) Query(ctx context.Context, collection, field string, value interface{}) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := copyValue(value)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.snapshotLocked(collection) {
		if reflect.DeepEqual(rec.Fields[field], want) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	id := uuid.New().String()
	err := s.write(ctx, OpCreate, collection, id, func(existing map[string]interface{}, found bool) (map[string]interface{}, error) {
		return s.resolve(nil, fields), nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error {
	return s.write(ctx, OpSet, collection, id, func(existing map[string]interface{}, found bool) (map[string]interface{}, error) {
		if merge && found {
			return s.resolve(existing, fields), nil
		}
		return s.resolve(nil, fields), nil
	})
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return s.write(ctx, OpUpdate, collection, id, func(existing map[string]interface{}, found bool) (map[string]interface{}, error) {
		if !found {
			return nil, ErrNotFound
		}
		return s.resolve(existing, fields), nil
	})
}

func (s *MemoryStore) IncrementField(ctx context.Context, collection, id, field string, delta int64) error {
	return s.write(ctx, OpIncrement, collection, id, func(existing map[string]interface{}, found bool) (map[string]interface{}, error) {
		if !found {
			return nil, ErrNotFound
		}
		return s.resolve(existing, map[string]interface{}{field: Increment(delta)}), nil
	})
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.fault != nil {
		if err := s.fault(OpDelete, collection, id); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	// Deleting a missing document is not an error, matching Firestore.
	delete(s.data[collection], id)
	deliveries := s.pendingDeliveriesLocked(collection)
	s.mu.Unlock()

	deliver(deliveries)
	return nil
}

type mutateFunc func(existing map[string]interface{}, found bool) (map[string]interface{}, error)

func (s *MemoryStore) write(ctx context.Context, op Op, collection, id string, mutate mutateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.fault != nil {
		if err := s.fault(op, collection, id); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	existing, found := s.data[collection][id]
	next, err := mutate(existing, found)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]map[string]interface{})
	}
	s.data[collection][id] = next
	deliveries := s.pendingDeliveriesLocked(collection)
	s.mu.Unlock()

	deliver(deliveries)
	return nil
}

// resolve applies fields over base, expanding sentinel values.
func (s *MemoryStore) resolve(base, fields map[string]interface{}) map[string]interface{} {
	out := copyFields(base)
	if out == nil {
		out = make(map[string]interface{}, len(fields))
	}
	for key, value := range fields {
		switch v := value.(type) {
		case serverTimestamp:
			out[key] = s.now().UTC()
		case increment:
			out[key] = toInt64(out[key]) + v.delta
		case arrayUnion:
			current := toInterfaces(out[key])
			for _, candidate := range v.values {
				if !containsValue(current, candidate) {
					current = append(current, candidate)
				}
			}
			out[key] = current
		case arrayRemove:
			current := toInterfaces(out[key])
			kept := current[:0]
			for _, item := range current {
				if !containsValue(v.values, item) {
					kept = append(kept, item)
				}
			}
			out[key] = kept
		default:
			out[key] = copyValue(value)
		}
	}
	return out
}

func (s *MemoryStore) snapshotLocked(collection string, order ...OrderBy) []Record {
	docs := s.data[collection]
	out := make([]Record, 0, len(docs))
	for id, fields := range docs {
		out = append(out, Record{ID: id, Fields: copyFields(fields)})
	}
	sortRecords(out, order...)
	return out
}

type delivery struct {
	sub     *memorySubscription
	records []Record
}

func (s *MemoryStore) pendingDeliveriesLocked(collection string) []delivery {
	subs := s.subs[collection]
	if len(subs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]delivery, 0, len(ids))
	for _, id := range ids {
		sub := subs[id]
		out = append(out, delivery{sub: sub, records: s.snapshotLocked(collection, sub.order)})
	}
	return out
}

func deliver(deliveries []delivery) {
	for _, d := range deliveries {
		if d.sub.stopped.Load() {
			continue
		}
		d.sub.fn(d.records)
	}
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, order OrderBy, fn SnapshotFunc) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.nextSub++
	sub := &memorySubscription{
		store:      s,
		id:         s.nextSub,
		collection: collection,
		order:      order,
		fn:         fn,
	}
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[int64]*memorySubscription)
	}
	s.subs[collection][sub.id] = sub
	initial := s.snapshotLocked(collection, order)
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, sub.Stop)
	s.mu.Lock()
	sub.stopCtx = stop
	s.mu.Unlock()

	fn(initial)
	return sub, nil
}

type memorySubscription struct {
	store      *MemoryStore
	id         int64
	collection string
	order      OrderBy
	fn         SnapshotFunc
	stopped    atomic.Bool
	stopCtx    func() bool
}

func (m *memorySubscription) Stop() {
	if !m.stopped.CompareAndSwap(false, true) {
		return
	}
	m.store.mu.Lock()
	delete(m.store.subs[m.collection], m.id)
	stop := m.stopCtx
	m.store.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// ActiveSubscriptions reports live subscriptions on a collection.
func (s *MemoryStore) ActiveSubscriptions(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[collection])
}

func sortRecords(records []Record, order ...OrderBy) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, o := range order {
			c := compareValues(records[i].Fields[o.Field], records[j].Fields[o.Field])
			if c == 0 {
				continue
			}
			if o.Direction == Desc {
				return c > 0
			}
			return c < 0
		}
		return records[i].ID < records[j].ID
	})
}

func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		bv, _ := b.(time.Time)
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		}
		return 0
	case string:
		bv, _ := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case nil:
		if b == nil {
			return 0
		}
		return -1
	default:
		an, bn := toInt64(a), toInt64(b)
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyFields(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = copyFields(item)
		}
		return out
	case int:
		return int64(t)
	default:
		return v
	}
}

func toInterfaces(v interface{}) []interface{} {
	switch t := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(t))
		copy(out, t)
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}

func containsValue(values []interface{}, candidate interface{}) bool {
	for _, v := range values {
		if reflect.DeepEqual(v, candidate) {
			return true
		}
	}
	return false
}
