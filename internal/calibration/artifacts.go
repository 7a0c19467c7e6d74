// Package calibration applies the three-stage post-hoc calibration
// pipeline: a per-league trained calibrator, temperature scaling, and
// an in-season blend toward uniform boosted on distribution drift.
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-oracle/internal/models"
)

// VersionMissing is the calibrator version stamp used when no artifact
// exists for a league
const VersionMissing = "missing"

// calibratorFile is the on-disk JSON shape of a trained calibrator.
// The method tag selects which parameter block is meaningful.
type calibratorFile struct {
	Method    string                  `json:"method"`
	Platt     *models.PlattParams     `json:"platt,omitempty"`
	Dirichlet *models.DirichletParams `json:"dirichlet,omitempty"`
}

// Loader reads calibration artifacts and the temperature/alpha tables
// from disk, memoizing everything for the process lifetime.
type Loader struct {
	calibratorDir   string
	temperatureFile string
	alphaFile       string
	logger          *logrus.Logger

	calibrators  *cache.Cache
	tablesOnce   sync.Once
	temperatures map[string]float64
	alphas       map[string]float64
}

// NewLoader creates an artifact loader
func NewLoader(calibratorDir, temperatureFile, alphaFile string, logger *logrus.Logger) *Loader {
	return &Loader{
		calibratorDir:   calibratorDir,
		temperatureFile: temperatureFile,
		alphaFile:       alphaFile,
		logger:          logger,
		calibrators:     cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// Calibrator returns the trained calibrator for a league, or nil when
// the artifact is absent or unreadable. Absence is not an error.
func (l *Loader) Calibrator(league string) *models.CalibrationArtifact {
	if v, ok := l.calibrators.Get(league); ok {
		artifact, _ := v.(*models.CalibrationArtifact)
		return artifact
	}

	path := filepath.Join(l.calibratorDir, league+".json")
	artifact, err := readCalibratorArtifact(path, league)
	if err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"league": league,
			"path":   path,
		}).Debug("Calibrator artifact unavailable")
		l.calibrators.Set(league, (*models.CalibrationArtifact)(nil), cache.NoExpiration)
		return nil
	}

	l.calibrators.Set(league, artifact, cache.NoExpiration)
	return artifact
}

// CalibratorVersion returns the mtime-derived version stamp for the
// league's calibrator, or VersionMissing
func (l *Loader) CalibratorVersion(league string) string {
	if artifact := l.Calibrator(league); artifact != nil {
		return artifact.Version
	}
	return VersionMissing
}

// Temperature returns the offline-fitted temperature for a league
func (l *Loader) Temperature(league string) (float64, bool) {
	l.ensureTables()
	t, ok := l.temperatures[league]
	if !ok || t <= 0 {
		return 0, false
	}
	return t, true
}

// Alpha returns the in-season uniform-blend coefficient for a league
func (l *Loader) Alpha(league string) (float64, bool) {
	l.ensureTables()
	a, ok := l.alphas[league]
	if !ok || a < 0 {
		return 0, false
	}
	return a, true
}

// ensureTables loads both league tables exactly once. Temperature and
// Alpha run on every prediction, concurrently across requests.
func (l *Loader) ensureTables() {
	l.tablesOnce.Do(func() {
		l.temperatures = readLeagueTable(l.temperatureFile, l.logger)
		l.alphas = readLeagueTable(l.alphaFile, l.logger)
	})
}

// readLeagueTable parses a league -> scalar JSON table; a missing or
// malformed table is treated as empty
func readLeagueTable(path string, logger *logrus.Logger) map[string]float64 {
	if path == "" {
		return map[string]float64{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Debug("League table unavailable")
		return map[string]float64{}
	}
	table := map[string]float64{}
	if err := json.Unmarshal(data, &table); err != nil {
		logger.WithError(err).WithField("path", path).Warn("League table malformed, ignoring")
		return map[string]float64{}
	}
	return table
}

func readCalibratorArtifact(path, league string) (*models.CalibrationArtifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrArtifactMissing, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibrator artifact: %w", err)
	}

	var file calibratorFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse calibrator artifact: %w", err)
	}

	artifact := &models.CalibrationArtifact{
		League:  league,
		Version: fmt.Sprintf("%d", info.ModTime().Unix()),
	}

	switch file.Method {
	case "platt":
		if file.Platt == nil {
			return nil, fmt.Errorf("calibrator artifact %s: platt method without platt params", path)
		}
		artifact.Kind = models.CalibratorPlatt
		artifact.Platt = file.Platt
	case "dirichlet":
		if file.Dirichlet == nil {
			return nil, fmt.Errorf("calibrator artifact %s: dirichlet method without dirichlet params", path)
		}
		artifact.Kind = models.CalibratorDirichlet
		artifact.Dirichlet = file.Dirichlet
	default:
		return nil, fmt.Errorf("calibrator artifact %s: unknown method %q", path, file.Method)
	}

	return artifact, nil
}
