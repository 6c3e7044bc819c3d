package store

import (
	"context"
	"sync"

	"github.com/Seednode/killchain/internal/game"
)

// maxCommitRetries bounds how often an Update re-reads and re-applies
// after losing a version race before surfacing ErrConflict.
const maxCommitRetries = 5

// watchBuffer is the per-subscriber channel depth. Slow subscribers
// miss intermediate snapshots rather than blocking writers; the next
// delivery always carries the full current state, so dropped
// notifications are harmless.
const watchBuffer = 8

type entry struct {
	session  *game.Session
	version  uint64
	watchers map[chan Snapshot]struct{}
}

// Memory is the in-process Store. All mutations go through copy-on-write
// clones, so readers and watchers only ever observe fully committed
// snapshots.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*entry),
	}
}

func (m *Memory) Create(_ context.Context, session *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.Code]; ok {
		return ErrExists
	}

	m.sessions[session.Code] = &entry{
		session:  session.Clone(),
		version:  1,
		watchers: make(map[chan Snapshot]struct{}),
	}

	return nil
}

func (m *Memory) Load(_ context.Context, code string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[code]
	if !ok {
		return Snapshot{}, ErrNotFound
	}

	return Snapshot{Session: e.session.Clone(), Version: e.version}, nil
}

// Update applies fn to a clone of the current session and commits it
// with a compare-and-swap on the version. Two racing updates of the
// same session serialize: the loser re-reads and re-applies against the
// winner's state, which is exactly what turns two simultaneous reports
// of the same victim into one success and one AlreadyEliminated.
func (m *Memory) Update(ctx context.Context, code string, fn func(*game.Session) error) (Snapshot, error) {
	for attempt := 0; attempt <= maxCommitRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}

		m.mu.RLock()
		e, ok := m.sessions[code]
		if !ok {
			m.mu.RUnlock()
			return Snapshot{}, ErrNotFound
		}
		working := e.session.Clone()
		readVersion := e.version
		m.mu.RUnlock()

		if err := fn(working); err != nil {
			return Snapshot{}, err
		}

		m.mu.Lock()
		e, ok = m.sessions[code]
		if !ok {
			m.mu.Unlock()
			return Snapshot{}, ErrNotFound
		}
		if e.version != readVersion {
			m.mu.Unlock()
			continue
		}

		e.session = working
		e.version++

		snapshot := Snapshot{Session: working, Version: e.version}
		for w := range e.watchers {
			select {
			case w <- snapshot:
			default:
			}
		}
		m.mu.Unlock()

		return snapshot, nil
	}

	return Snapshot{}, ErrConflict
}

// Watch subscribes to committed snapshots of one session. The current
// state is delivered immediately, then every commit after it. Delivery
// is at-least-once with respect to state: intermediate versions may be
// skipped under backpressure, duplicates are possible, and receivers
// must not mutate the shared session.
func (m *Memory) Watch(ctx context.Context, code string) (<-chan Snapshot, func(), error) {
	m.mu.Lock()
	e, ok := m.sessions[code]
	if !ok {
		m.mu.Unlock()
		return nil, nil, ErrNotFound
	}

	ch := make(chan Snapshot, watchBuffer)
	ch <- Snapshot{Session: e.session, Version: e.version}
	e.watchers[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()

			// Delete may already have closed the channel.
			e, ok := m.sessions[code]
			if !ok {
				return
			}
			if _, watching := e.watchers[ch]; watching {
				delete(e.watchers, ch)
				close(ch)
			}
		})
	}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return ch, cancel, nil
}

func (m *Memory) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[code]
	if !ok {
		return nil
	}

	for w := range e.watchers {
		close(w)
	}
	delete(m.sessions, code)

	return nil
}
