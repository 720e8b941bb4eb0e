package memory

import (
	"fmt"
	"time"

	"ai-reading-be/pkg/reader"

	"github.com/patrickmn/go-cache"
)

// WorkspaceRepository keeps the open documents of every learner. Evicted or replaced
// workspaces are closed so their pending page transitions stop.
type WorkspaceRepository struct {
	cache *cache.Cache
}

func NewWorkspaceRepository(ttl time.Duration) *WorkspaceRepository {
	c := cache.New(ttl, 10*time.Minute)
	c.OnEvicted(func(_ string, v interface{}) {
		if ws, ok := v.(*reader.Workspace); ok {
			ws.Close()
		}
	})
	return &WorkspaceRepository{
		cache: c,
	}
}

func workspaceKey(userID, documentID string) string {
	return fmt.Sprintf("%s:%s", userID, documentID)
}

func (r *WorkspaceRepository) Save(ws *reader.Workspace) {
	key := workspaceKey(ws.UserID, ws.DocumentID)
	if old, found := r.cache.Get(key); found && old != ws {
		old.(*reader.Workspace).Close()
	}
	r.cache.Set(key, ws, cache.DefaultExpiration)
}

// Get returns the workspace and refreshes its expiry.
func (r *WorkspaceRepository) Get(userID, documentID string) (*reader.Workspace, bool) {
	key := workspaceKey(userID, documentID)
	if x, found := r.cache.Get(key); found {
		r.cache.Set(key, x, cache.DefaultExpiration)
		return x.(*reader.Workspace), true
	}
	return nil, false
}

func (r *WorkspaceRepository) Delete(userID, documentID string) {
	r.cache.Delete(workspaceKey(userID, documentID))
}
