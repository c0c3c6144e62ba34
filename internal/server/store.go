package server

import (
	"sync/atomic"
	"time"

	"github.com/SimonPop/lanterns/internal/config"
)

// Snapshot is one accepted load of the settings files. Snapshots are never
// modified once stored.
type Snapshot struct {
	ID          string
	Fingerprint string
	Sources     []string
	LoadedAt    time.Time
	Config      config.SiteConfig
}

// Store holds the current snapshot. Readers never block reloads.
type Store struct {
	cur atomic.Pointer[Snapshot]
}

// Current returns the latest snapshot, or nil before the first load.
func (s *Store) Current() *Snapshot { return s.cur.Load() }

// swap installs next and returns the snapshot it replaced.
func (s *Store) swap(next *Snapshot) *Snapshot { return s.cur.Swap(next) }
