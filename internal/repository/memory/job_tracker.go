package memory

import (
	"time"

	"ai-mediagen-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// JobTracker keeps in-flight job states in memory with a TTL. Settled jobs
// expire on their own; the durable record lives in generation_records.
type JobTracker struct {
	cache *cache.Cache
}

func NewJobTracker() *JobTracker {
	// Jobs poll for at most 10 minutes; keep states around a bit longer so the
	// status endpoint can still answer right after settlement.
	c := cache.New(30*time.Minute, 10*time.Minute)
	return &JobTracker{
		cache: c,
	}
}

func (t *JobTracker) Save(state *store.JobState) {
	state.UpdatedAt = time.Now()
	t.cache.Set(state.ReferenceId.String(), state, cache.DefaultExpiration)
}

func (t *JobTracker) Get(referenceId string) (*store.JobState, bool) {
	if x, found := t.cache.Get(referenceId); found {
		return x.(*store.JobState), true
	}
	return nil, false
}

func (t *JobTracker) Delete(referenceId string) {
	t.cache.Delete(referenceId)
}
