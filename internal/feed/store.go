package feed

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/relabs-tech/imu_dashboard/internal/imu"
)

// Store holds the latest reading per unit in first-seen order.
type Store struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]imu.Reading
	have   bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byName: make(map[string]imu.Reading)}
}

// Set replaces the whole content with snap.
func (s *Store) Set(snap imu.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	s.byName = make(map[string]imu.Reading, len(snap))
	for _, r := range snap.Clone() {
		if _, ok := s.byName[r.Name]; !ok {
			s.order = append(s.order, r.Name)
		}
		s.byName[r.Name] = r
	}
	s.have = true
}

// Update replaces one unit's reading, appending it if it is new.
func (s *Store) Update(r imu.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[r.Name]; !ok {
		s.order = append(s.order, r.Name)
	}
	s.byName[r.Name] = imu.Snapshot{r}.Clone()[0]
	s.have = true
}

// Snapshot returns the current content and whether anything was stored yet.
func (s *Store) Snapshot() (imu.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(imu.Snapshot, 0, len(s.order))
	for _, name := range s.order {
		snap = append(snap, s.byName[name])
	}
	return snap.Clone(), s.have
}

// Handler serves the store as the /api/imu JSON array.
func Handler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, have := store.Snapshot()
		if !have {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			log.Printf("feed: json encode error: %v", err)
		}
	}
}
