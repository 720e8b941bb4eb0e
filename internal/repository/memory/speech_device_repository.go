package memory

import (
	"sync"
	"time"

	"ai-reading-be/pkg/speech"

	"github.com/patrickmn/go-cache"
)

// SpeechDeviceRepository hands every learner their own speech device. Idle devices expire;
// a device that is still held when it expires is kept for another period.
type SpeechDeviceRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
	build func(owner string) *speech.Device
}

func NewSpeechDeviceRepository(ttl time.Duration, build func(owner string) *speech.Device) *SpeechDeviceRepository {
	r := &SpeechDeviceRepository{
		cache: cache.New(ttl, time.Minute),
		build: build,
	}
	r.cache.OnEvicted(r.evicted)
	return r
}

// Get returns the learner's device, building it on first use, and refreshes its expiry.
func (r *SpeechDeviceRepository) Get(userID string) *speech.Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(userID); found {
		d := x.(*speech.Device)
		r.cache.Set(userID, d, cache.DefaultExpiration)
		return d
	}
	d := r.build(userID)
	r.cache.Set(userID, d, cache.DefaultExpiration)
	return d
}

// Len counts the devices currently kept.
func (r *SpeechDeviceRepository) Len() int {
	return r.cache.ItemCount()
}

func (r *SpeechDeviceRepository) evicted(userID string, v interface{}) {
	d, ok := v.(*speech.Device)
	if !ok || d.Holder() == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Add fails when a newer device was built in the meantime
	_ = r.cache.Add(userID, d, cache.DefaultExpiration)
}

// Sweep drops expired devices now instead of waiting for the janitor.
func (r *SpeechDeviceRepository) Sweep() {
	r.cache.DeleteExpired()
}
