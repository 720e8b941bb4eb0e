package memory

import (
	"time"

	"ai-reading-be/pkg/assessment"

	"github.com/patrickmn/go-cache"
)

// AssessmentSessionRepository keeps running sessions. Expired sessions are closed, which
// releases their speech lease.
type AssessmentSessionRepository struct {
	cache *cache.Cache
}

func NewAssessmentSessionRepository(ttl time.Duration) *AssessmentSessionRepository {
	c := cache.New(ttl, time.Minute)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*assessment.Session); ok {
			s.Close()
		}
	})
	return &AssessmentSessionRepository{
		cache: c,
	}
}

func (r *AssessmentSessionRepository) Save(session *assessment.Session) {
	r.cache.Set(session.ID(), session, cache.DefaultExpiration)
}

func (r *AssessmentSessionRepository) Get(sessionID string) (*assessment.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*assessment.Session), true
	}
	return nil, false
}

// Delete drops the session and closes it.
func (r *AssessmentSessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
