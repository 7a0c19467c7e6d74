package modelbank

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-oracle/internal/models"
)

// ClassifierVersionMissing is the version stamp used when no artifact
// exists for a league
const ClassifierVersionMissing = "missing"

// Classifier scores matches with a trained linear model loaded from a
// per-league JSON artifact. Artifacts are deserialized once per process
// and memoized; absence is signalled, never raised.
type Classifier struct {
	dir       string
	logger    *logrus.Logger
	artifacts *cache.Cache
}

// NewClassifier creates a classifier reading artifacts from dir
func NewClassifier(dir string, logger *logrus.Logger) *Classifier {
	return &Classifier{
		dir:       dir,
		logger:    logger,
		artifacts: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// Version returns the artifact version stamp for a league, or
// ClassifierVersionMissing
func (c *Classifier) Version(league string) string {
	artifact := c.load(league)
	if artifact == nil {
		return ClassifierVersionMissing
	}
	return artifact.Version
}

// Estimate scores the match; the boolean reports availability. A missing
// artifact or an unscorable feature vector yields (zero, false).
func (c *Classifier) Estimate(mc *models.MatchContext) (models.OutcomeDistribution, bool) {
	artifact := c.load(mc.Championship)
	if artifact == nil {
		return models.OutcomeDistribution{}, false
	}

	vector, ok := c.featureVector(artifact, mc)
	if !ok {
		return models.OutcomeDistribution{}, false
	}

	if len(artifact.Weights) != 3 || len(artifact.Intercept) != 3 {
		return models.OutcomeDistribution{}, false
	}

	var scores [3]float64
	for class := 0; class < 3; class++ {
		if len(artifact.Weights[class]) != len(vector) {
			return models.OutcomeDistribution{}, false
		}
		s := artifact.Intercept[class]
		for i, w := range artifact.Weights[class] {
			s += w * vector[i]
		}
		scores[class] = s
	}

	dist := softmax3(scores)
	if !dist.IsValid() {
		return models.OutcomeDistribution{}, false
	}
	return dist, true
}

// featureVector assembles and standardizes the artifact's feature list
// from the match context
func (c *Classifier) featureVector(artifact *models.ClassifierArtifact, mc *models.MatchContext) ([]float64, bool) {
	vector := make([]float64, len(artifact.Features))
	for i, name := range artifact.Features {
		v, ok := mc.Feature(name)
		if !ok {
			switch name {
			case "matchday":
				if mc.Matchday == nil {
					return nil, false
				}
				v = float64(*mc.Matchday)
			default:
				return nil, false
			}
		}
		if i < len(artifact.Means) && i < len(artifact.Scales) && artifact.Scales[i] != 0 {
			v = (v - artifact.Means[i]) / artifact.Scales[i]
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		vector[i] = v
	}
	return vector, true
}

// load fetches the league artifact from the in-process cache, reading
// it from disk on first use
func (c *Classifier) load(league string) *models.ClassifierArtifact {
	if v, ok := c.artifacts.Get(league); ok {
		if artifact, ok := v.(*models.ClassifierArtifact); ok {
			return artifact
		}
		return nil
	}

	path := filepath.Join(c.dir, league+".json")
	artifact, err := readClassifierArtifact(path, league)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"league": league,
			"path":   path,
		}).Debug("Classifier artifact unavailable")
		// Negative result is memoized too: a missing artifact stays
		// missing until process restart
		c.artifacts.Set(league, (*models.ClassifierArtifact)(nil), cache.NoExpiration)
		return nil
	}

	c.artifacts.Set(league, artifact, cache.NoExpiration)
	return artifact
}

func readClassifierArtifact(path, league string) (*models.ClassifierArtifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrArtifactMissing, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier artifact: %w", err)
	}

	artifact := &models.ClassifierArtifact{}
	if err := json.Unmarshal(data, artifact); err != nil {
		return nil, fmt.Errorf("failed to parse classifier artifact: %w", err)
	}

	artifact.League = league
	artifact.Version = fmt.Sprintf("%d", info.ModTime().Unix())
	return artifact, nil
}

func softmax3(scores [3]float64) models.OutcomeDistribution {
	// Shift by the max score for numerical stability
	max := math.Max(scores[0], math.Max(scores[1], scores[2]))
	eh := math.Exp(scores[0] - max)
	ed := math.Exp(scores[1] - max)
	ea := math.Exp(scores[2] - max)
	sum := eh + ed + ea
	return models.OutcomeDistribution{Home: eh / sum, Draw: ed / sum, Away: ea / sum}
}
