// Package persistence ties the keyspace engine to the two collaborating
// persistence components, the AOF command log and the RDB snapshot. It
// owns startup recovery order, the save-trigger loop, and AOF rewrite; it
// never modifies slots directly, only reads the Slots Store.Snapshot hands
// to AOF rewrite, and otherwise goes through internal/store's public
// methods and the command verbs replayed via an Applier (the dispatcher,
// so replay and live execution share one code path).
package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mshaverdo/keelhaul/internal/aof"
	"github.com/mshaverdo/keelhaul/internal/logutil"
	"github.com/mshaverdo/keelhaul/internal/rdb"
	"github.com/mshaverdo/keelhaul/internal/store"
)

// Applier replays one logged/propagated mutator invocation against the
// keyspace, identical to how the dispatcher executes a live client command
// but without authorization, AOF re-logging, or replica fan-out.
type Applier interface {
	Apply(cmd string, args [][]byte) error
}

// SaveRule is one (changes, seconds) RDB save trigger: schedule a
// snapshot once at least Changes mutations have accumulated AND at least
// Seconds have elapsed since the last save.
type SaveRule struct {
	Changes int64
	Seconds time.Duration
}

// Config bundles the persistence knobs exposed as CLI options.
type Config struct {
	AOFEnabled bool
	AOFPath    string
	AOFFsync   aof.FsyncPolicy

	RDBEnabled bool
	RDBPath    string
	SaveRules  []SaveRule
}

// Manager owns the AOF writer (if enabled) and schedules RDB saves and AOF
// rewrites for one Store.
type Manager struct {
	cfg   Config
	store *store.Store

	mu       sync.Mutex
	aofw     *aof.Writer
	lastSave time.Time
}

// New constructs a Manager. It does not open the AOF file or perform
// recovery; call Recover, then RunSaveLoop.
func New(cfg Config, s *store.Store) *Manager {
	return &Manager{cfg: cfg, store: s, lastSave: time.Now()}
}

// Recover replays persisted state into applier: if the AOF exists and is
// non-empty, replay it exclusively (it is authoritative); otherwise load
// the newest RDB; otherwise start empty. It then opens the AOF for
// appending if AOFEnabled, so subsequent live mutators are logged from
// this point on.
func (m *Manager) Recover(applier Applier) error {
	aofSize := int64(0)
	if m.cfg.AOFEnabled {
		var err error
		aofSize, err = aof.Size(m.cfg.AOFPath)
		if err != nil {
			return fmt.Errorf("persistence: checking AOF: %w", err)
		}
	}

	switch {
	case m.cfg.AOFEnabled && aofSize > 0:
		n, err := aof.Replay(m.cfg.AOFPath, applier.Apply)
		if err != nil {
			return fmt.Errorf("persistence: replaying AOF: %w", err)
		}
		logutil.Noticef("persistence: replayed %d commands from %s", n, m.cfg.AOFPath)
	case m.cfg.RDBEnabled:
		entries, err := rdb.Load(m.cfg.RDBPath)
		if err != nil {
			return fmt.Errorf("persistence: loading RDB: %w", err)
		}
		if entries != nil {
			m.store.LoadSnapshot(entries)
			logutil.Noticef("persistence: loaded %d keys from %s", len(entries), m.cfg.RDBPath)
		}
	default:
		logutil.Noticef("persistence: starting with an empty keyspace")
	}

	if m.cfg.AOFEnabled {
		w, err := aof.Open(m.cfg.AOFPath, m.cfg.AOFFsync)
		if err != nil {
			return fmt.Errorf("persistence: opening AOF for append: %w", err)
		}
		m.mu.Lock()
		m.aofw = w
		m.mu.Unlock()
	}

	return nil
}

// LogMutation appends cmd/args to the AOF if enabled. Called by the
// dispatcher's post-commit hook, after the type operation has already
// committed successfully.
func (m *Manager) LogMutation(cmd string, args [][]byte) {
	m.mu.Lock()
	w := m.aofw
	m.mu.Unlock()

	if w == nil {
		return
	}
	if err := w.Append(cmd, args); err != nil {
		logutil.Errorf("persistence: AOF append failed: %s", err)
	}
}

// Close flushes and closes the AOF file, if open.
func (m *Manager) Close() error {
	m.mu.Lock()
	w := m.aofw
	m.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Close()
}

// Save writes a fresh RDB snapshot and resets the change counter the save
// rules are measured against.
func (m *Manager) Save() error {
	if !m.cfg.RDBEnabled {
		return nil
	}
	if err := rdb.Save(m.cfg.RDBPath, m.store); err != nil {
		return err
	}
	m.store.ResetChangeCounter()
	m.mu.Lock()
	m.lastSave = time.Now()
	m.mu.Unlock()
	return nil
}

// shouldSave reports whether any configured SaveRule currently fires.
func (m *Manager) shouldSave() bool {
	m.mu.Lock()
	elapsed := time.Since(m.lastSave)
	m.mu.Unlock()

	changes := m.store.ChangesSinceReset()
	for _, rule := range m.cfg.SaveRules {
		if changes >= rule.Changes && elapsed >= rule.Seconds {
			return true
		}
	}
	return false
}

// RunSaveLoop periodically checks the save rules and triggers Save, until
// ctx is cancelled. Background save failures are logged, never fatal.
func (m *Manager) RunSaveLoop(ctx context.Context, tick time.Duration) {
	if !m.cfg.RDBEnabled || len(m.cfg.SaveRules) == 0 {
		return
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.shouldSave() {
				if err := m.Save(); err != nil {
					logutil.Errorf("persistence: background save failed: %s", err)
				} else {
					logutil.Infof("persistence: saved RDB snapshot to %s", m.cfg.RDBPath)
				}
			}
		}
	}
}

// Rewrite creates a fresh AOF from the current state of the store: the
// minimal command stream that reconstructs every live key (SET/RPUSH/
// HSET/SADD/ZADD/XADD/GEOADD/VECADD/TSADD/SETBIT as appropriate, plus
// EXPIRE for keys with a future expiration), then atomically swaps it in
// for the live writer. Mutators are blocked for the duration of the
// snapshot scan (Store.Snapshot already takes the global snapshot lock);
// this trades a brief pause for not needing a separate old/new log
// reconciliation step.
func (m *Manager) Rewrite() error {
	if !m.cfg.AOFEnabled {
		return nil
	}

	tmpPath := m.cfg.AOFPath + ".rewrite"
	w, err := aof.Open(tmpPath, m.cfg.AOFFsync)
	if err != nil {
		return fmt.Errorf("persistence: opening rewrite file: %w", err)
	}

	emitErr := emitReconstruction(m.store, w)
	if closeErr := w.Close(); closeErr != nil && emitErr == nil {
		emitErr = closeErr
	}
	if emitErr != nil {
		return fmt.Errorf("persistence: rewriting AOF: %w", emitErr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aofw != nil {
		m.aofw.Close()
	}
	if err := renameFile(tmpPath, m.cfg.AOFPath); err != nil {
		return fmt.Errorf("persistence: swapping rewritten AOF into place: %w", err)
	}

	newWriter, err := aof.Open(m.cfg.AOFPath, m.cfg.AOFFsync)
	if err != nil {
		return fmt.Errorf("persistence: reopening AOF after rewrite: %w", err)
	}
	m.aofw = newWriter
	return nil
}
