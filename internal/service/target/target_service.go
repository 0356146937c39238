package target

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"obstarget/internal/model"
	"obstarget/internal/service/storage"
)

var (
	ErrTargetNotFound   = errors.New("target not found")
	ErrTargetIDMismatch = errors.New("target id does not match")
)

// Repository is the durable store for targets (PostgreSQL)
type Repository interface {
	LoadAll(ctx context.Context) ([]*model.Target, error)
	SaveAll(ctx context.Context, targets []*model.Target) error
	Delete(ctx context.Context, ids []int) error
}

// Cache holds the latest snapshot of each target (Redis)
type Cache interface {
	LoadAll(ctx context.Context) (map[int]*model.Target, error)
	SaveAll(ctx context.Context, targets []*model.Target) error
	Delete(ctx context.Context, ids []int) error
}

// Conditions is the observing-condition snapshot sampled by the scheduler
type Conditions struct {
	Time          float64 `json:"time"`
	Airmass       float64 `json:"airmass"`
	SkyBrightness float64 `json:"sky_brightness"`
	Cloud         float64 `json:"cloud"`
	Seeing        float64 `json:"seeing"`
	SlewTime      float64 `json:"slewtime"`
}

type TargetService struct {
	storage     storage.Storage[int, *model.Target]
	repo        Repository
	cache       Cache
	initialized bool
	initMutex   sync.Mutex

	// revision up to which tombstones are applied in each backend
	redisDeletedRev atomic.Uint64
	pgDeletedRev    atomic.Uint64
}

// NewTargetService creates a service backed by repo and cache. Either may be
// nil, in which case that persistence layer is skipped.
func NewTargetService(repo Repository, cache Cache) *TargetService {
	return &TargetService{
		storage: storage.NewMemoryStorage[int, *model.Target](),
		repo:    repo,
		cache:   cache,
	}
}

// InitService initializes the service by loading data from PostgreSQL and Redis
func (s *TargetService) InitService(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		return nil
	}

	log.Println("Initializing TargetService...")
	startTime := time.Now()

	var pgTargets []*model.Target
	if s.repo != nil {
		var err error
		pgTargets, err = s.repo.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load targets from PostgreSQL: %w", err)
		}
		log.Printf("Loaded %d targets from PostgreSQL in %v", len(pgTargets), time.Since(startTime))
	}

	var redisTargets map[int]*model.Target
	if s.cache != nil {
		var err error
		redisTargets, err = s.cache.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load targets from Redis: %w", err)
		}
		log.Printf("Loaded %d target snapshots from Redis", len(redisTargets))
	}

	// Redis is written more often than PostgreSQL, so its snapshot wins
	for _, t := range pgTargets {
		s.storage.Set(t.TargetID, t)
	}
	for id, t := range redisTargets {
		s.storage.Set(id, t)
	}

	// Everything just loaded is already persisted
	dirty, rev := s.storage.GetDirty()
	s.storage.ClearDirty(keysOf(dirty), rev)

	log.Printf("Initialization complete: %d targets in memory, took %v",
		s.storage.Count(), time.Since(startTime))

	s.initialized = true
	return nil
}

// Add stores a copy of t, replacing any target with the same id
func (s *TargetService) Add(t *model.Target) {
	s.storage.Set(t.TargetID, t)
}

// AddFromTopic converts a topic record and stores the resulting target
func (s *TargetService) AddFromTopic(topic model.TargetTopic) *model.Target {
	t := model.FromTopic(topic)
	s.storage.Set(t.TargetID, t)
	return t
}

// Get returns a copy of the target with the given id
func (s *TargetService) Get(id int) (*model.Target, error) {
	t, ok := s.storage.Get(id)
	if !ok {
		return nil, fmt.Errorf("target %d: %w", id, ErrTargetNotFound)
	}
	return t, nil
}

// List returns copies of all targets ordered by id
func (s *TargetService) List() []*model.Target {
	targets := s.storage.GetAllValues()
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].TargetID < targets[j].TargetID
	})
	return targets
}

// Count returns the number of targets in memory
func (s *TargetService) Count() int {
	return s.storage.Count()
}

// Replace decodes a JSON target and stores it under id
func (s *TargetService) Replace(id int, data []byte) (*model.Target, error) {
	t := &model.Target{}
	if err := t.FromJSON(data); err != nil {
		return nil, err
	}
	if t.TargetID != id {
		return nil, fmt.Errorf("body has targetid %d, path has %d: %w", t.TargetID, id, ErrTargetIDMismatch)
	}
	s.storage.Set(id, t)
	return t, nil
}

// ApplyDriverState copies the driver-computed pointing of src onto the stored target
func (s *TargetService) ApplyDriverState(id int, src *model.Target) (*model.Target, error) {
	return s.update(id, func(t *model.Target) {
		t.CopyDriverState(src)
	})
}

// UpdateConditions records the observing conditions and predicted slew time
func (s *TargetService) UpdateConditions(id int, c Conditions) (*model.Target, error) {
	return s.update(id, func(t *model.Target) {
		t.Time = c.Time
		t.Airmass = c.Airmass
		t.SkyBrightness = c.SkyBrightness
		t.Cloud = c.Cloud
		t.Seeing = c.Seeing
		t.SlewTime = c.SlewTime
	})
}

// SetExpTimeOverride sets the total exposure time override, or clears it when seconds is nil
func (s *TargetService) SetExpTimeOverride(id int, seconds *float64) (*model.Target, error) {
	return s.update(id, func(t *model.Target) {
		if seconds == nil {
			t.ClearExpTime()
			return
		}
		t.SetExpTime(*seconds)
	})
}

// SetNote replaces the scheduler annotation
func (s *TargetService) SetNote(id int, note string) (*model.Target, error) {
	return s.update(id, func(t *model.Target) {
		t.Note = note
	})
}

func (s *TargetService) update(id int, fn func(*model.Target)) (*model.Target, error) {
	var updated *model.Target
	ok := s.storage.Update(id, func(t *model.Target) {
		fn(t)
		updated = t.Copy()
	})
	if !ok {
		return nil, fmt.Errorf("target %d: %w", id, ErrTargetNotFound)
	}
	return updated, nil
}

// Delete removes a target from memory and tries to remove it from both
// persistence layers right away. A failed backend delete is retried by the
// next backup of that backend, so Delete only fails for unknown ids.
func (s *TargetService) Delete(ctx context.Context, id int) error {
	if !s.storage.Delete(id) {
		return fmt.Errorf("target %d: %w", id, ErrTargetNotFound)
	}

	ids := []int{id}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, ids); err != nil {
			log.Printf("Delete target %d from Redis failed, will retry: %v", id, err)
		}
	}
	if s.repo != nil {
		if err := s.repo.Delete(ctx, ids); err != nil {
			log.Printf("Delete target %d from PostgreSQL failed, will retry: %v", id, err)
		}
	}

	s.collectTombstones()
	return nil
}

// SaveDirtyTargetsToRedis saves modified targets to Redis, then removes
// the targets deleted since the last run
func (s *TargetService) SaveDirtyTargetsToRedis(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	dirty, rev := s.storage.GetDirty()
	if len(dirty) > 0 {
		targets := make([]*model.Target, 0, len(dirty))
		for _, t := range dirty {
			targets = append(targets, t)
		}

		if err := s.cache.SaveAll(ctx, targets); err != nil {
			return err
		}

		// Clear flags only after successful save
		s.storage.ClearDirty(keysOf(dirty), rev)
		log.Printf("Saved %d targets to Redis", len(targets))
	}

	return s.applyDeletes(ctx, "Redis", &s.redisDeletedRev, s.cache.Delete)
}

// SaveAllTargetsToPG saves all targets to PostgreSQL, then soft-deletes
// the targets deleted since the last run
func (s *TargetService) SaveAllTargetsToPG(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	allTargets := s.storage.GetAllValues()
	if len(allTargets) > 0 {
		if err := s.repo.SaveAll(ctx, allTargets); err != nil {
			return err
		}
		log.Printf("Saved %d targets to PostgreSQL", len(allTargets))
	}

	return s.applyDeletes(ctx, "PostgreSQL", &s.pgDeletedRev, s.repo.Delete)
}

// applyDeletes deletes every tombstoned id newer than applied from one
// backend. It runs after the upserts, so a snapshot taken before a delete
// cannot bring the target back.
func (s *TargetService) applyDeletes(ctx context.Context, backend string, applied *atomic.Uint64,
	del func(ctx context.Context, ids []int) error) error {
	deleted, rev := s.storage.GetDeleted()

	var ids []int
	for id, delRev := range deleted {
		if delRev > applied.Load() {
			ids = append(ids, id)
		}
	}

	if len(ids) > 0 {
		sort.Ints(ids)
		if err := del(ctx, ids); err != nil {
			return fmt.Errorf("delete %d targets from %s: %w", len(ids), backend, err)
		}
		log.Printf("Deleted %d targets from %s", len(ids), backend)
	}

	applied.Store(rev)
	s.collectTombstones()
	return nil
}

// collectTombstones drops tombstones every configured backend has applied
func (s *TargetService) collectTombstones() {
	limit := uint64(math.MaxUint64)
	if s.cache != nil {
		limit = min(limit, s.redisDeletedRev.Load())
	}
	if s.repo != nil {
		limit = min(limit, s.pgDeletedRev.Load())
	}
	s.storage.ClearDeleted(limit)
}

func keysOf(m map[int]*model.Target) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
