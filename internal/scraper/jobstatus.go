package scraper

import (
	"sort"
	"sync"
	"time"
)

// State is the lifecycle of a scraper run.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Job records one scraper run, keyed by the descriptor key.
type Job struct {
	Key        string
	State      State
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
	Result     *Result
}

// StatusStore tracks scraper runs. Implementations are injected into whatever
// drives the scrapers; there is no package-level store.
type StatusStore interface {
	Get(key string) (Job, bool)
	Set(job Job)
	Remove(key string)
	List() []Job
}

// MemoryStore is a mutex-guarded in-memory StatusStore.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewMemoryStore creates an empty in-memory status store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (s *MemoryStore) Get(key string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[key]
	return job, ok
}

func (s *MemoryStore) Set(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Key] = job
}

func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, key)
}

// List returns every tracked job sorted by key.
func (s *MemoryStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
