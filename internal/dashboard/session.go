package dashboard

import (
	"sync"

	"github.com/google/uuid"

	"github.com/relabs-tech/imu_dashboard/internal/imu"
)

// Session owns the snapshot shown by one display session. It is created
// when a dashboard starts and closed when it stops; after Close no result
// is applied any more.
type Session struct {
	ID string

	mu        sync.RWMutex
	snapshot  imu.Snapshot
	version   uint64
	lastTick  uint64
	closed    bool
	nextSubID int
	subs      map[int]chan uint64
}

// NewSession starts a session holding initial.
func NewSession(initial imu.Snapshot) *Session {
	if initial == nil {
		initial = imu.Snapshot{}
	}
	return &Session{
		ID:       uuid.NewString(),
		snapshot: initial.Clone(),
		subs:     make(map[int]chan uint64),
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Session) Snapshot() imu.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Version is incremented on every applied snapshot. It is 0 before the
// first one.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Apply replaces the snapshot with snap, which came from poll tick. It
// returns applied=false when the session is closed, and stale=true when a
// later tick had already been applied. Stale snapshots still replace the
// current one: the last applied result wins.
func (s *Session) Apply(snap imu.Snapshot, tick uint64) (applied, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, false
	}

	stale = tick < s.lastTick
	if !stale {
		s.lastTick = tick
	}
	s.snapshot = snap.Clone()
	if s.snapshot == nil {
		s.snapshot = imu.Snapshot{}
	}
	s.version++

	for _, ch := range s.subs {
		// Coalesce: a subscriber that hasn't consumed the previous
		// version only needs the newest one.
		select {
		case <-ch:
		default:
		}
		ch <- s.version
	}
	return true, stale
}

// Subscribe returns a channel that receives the version after every
// applied snapshot. Slow readers only see the latest version. The channel
// is closed when the session closes or cancel is called.
func (s *Session) Subscribe() (<-chan uint64, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan uint64, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close ends the session. Later Apply calls are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
