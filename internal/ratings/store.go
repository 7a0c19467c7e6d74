// Package ratings loads Elo-style team strength snapshots from disk.
//
// Snapshots are JSON documents keyed championship -> team. They are
// deserialized once per process and memoized; the file modification
// time at load becomes the ratings version stamp used in cache keys.
// Staleness until restart (or an explicit Reload) is an accepted
// trade-off against repeated deserialization under load.
package ratings

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// TeamRating is one team's strength snapshot entry
type TeamRating struct {
	Strength    float64   `json:"strength"`
	Form        float64   `json:"form"`
	GeneratedAt time.Time `json:"generated_at"`
}

// VersionMissing is the version stamp used when the snapshot file is absent
const VersionMissing = "missing"

// Store provides lookup of team ratings by championship and team
type Store struct {
	path    string
	logger  *logrus.Logger
	entries *cache.Cache
	mu      sync.RWMutex
	version string
	loaded  bool
}

// NewStore creates a ratings store reading from the given snapshot file
func NewStore(path string, logger *logrus.Logger) *Store {
	return &Store{
		path:    path,
		logger:  logger,
		entries: cache.New(cache.NoExpiration, cache.NoExpiration),
		version: VersionMissing,
	}
}

// Rating returns the rating for a team, loading the snapshot on first use
func (s *Store) Rating(championship, team string) (TeamRating, bool) {
	s.ensureLoaded()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.entries.Get(ratingKey(championship, team)); ok {
		return v.(TeamRating), true
	}
	return TeamRating{}, false
}

// Version returns the snapshot version stamp captured at load time
func (s *Store) Version() string {
	s.ensureLoaded()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Reload re-reads the snapshot file, replacing the memoized entries.
// Invoked by the maintenance scheduler, never on the request path.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) ensureLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return
	}
	if err := s.loadLocked(); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Ratings snapshot unavailable")
	}
	s.loaded = true
}

func (s *Store) loadLocked() error {
	info, err := os.Stat(s.path)
	if err != nil {
		s.version = VersionMissing
		return fmt.Errorf("failed to stat ratings snapshot: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.version = VersionMissing
		return fmt.Errorf("failed to read ratings snapshot: %w", err)
	}

	var snapshot map[string]map[string]TeamRating
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.version = VersionMissing
		return fmt.Errorf("failed to parse ratings snapshot: %w", err)
	}

	s.entries.Flush()
	count := 0
	for championship, teams := range snapshot {
		for team, rating := range teams {
			s.entries.Set(ratingKey(championship, team), rating, cache.NoExpiration)
			count++
		}
	}
	s.version = fmt.Sprintf("%d", info.ModTime().Unix())

	s.logger.WithFields(logrus.Fields{
		"path":    s.path,
		"teams":   count,
		"version": s.version,
	}).Info("Ratings snapshot loaded")
	return nil
}

func ratingKey(championship, team string) string {
	return championship + "|" + team
}
