package memory

import (
	"sync"
	"time"

	"ai-reading-be/pkg/annotation"

	"github.com/patrickmn/go-cache"
)

// AnnotationStoreRepository holds one annotation store per learner.
type AnnotationStoreRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewAnnotationStoreRepository(ttl time.Duration) *AnnotationStoreRepository {
	return &AnnotationStoreRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

// GetOrLoad returns the learner's store, building it with load on first use. A failed load
// leaves nothing cached so the next call retries.
func (r *AnnotationStoreRepository) GetOrLoad(userID string, load func(*annotation.Store) error) (*annotation.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(userID); found {
		r.cache.Set(userID, x, cache.DefaultExpiration)
		return x.(*annotation.Store), nil
	}

	s := annotation.NewStore()
	if load != nil {
		if err := load(s); err != nil {
			return nil, err
		}
	}
	r.cache.Set(userID, s, cache.DefaultExpiration)
	return s, nil
}

func (r *AnnotationStoreRepository) Delete(userID string) {
	r.cache.Delete(userID)
}
