package models

// CalibratorKind is the closed set of supported trained calibrators
type CalibratorKind int

const (
	// CalibratorPlatt is one-vs-rest logistic calibration
	CalibratorPlatt CalibratorKind = iota
	// CalibratorDirichlet is a full 3x3 log-linear calibration map
	CalibratorDirichlet
)

// String returns string representation of the calibrator kind
func (k CalibratorKind) String() string {
	switch k {
	case CalibratorPlatt:
		return "platt"
	case CalibratorDirichlet:
		return "dirichlet"
	default:
		return "unknown"
	}
}

// PlattParams holds per-class logistic coefficients, indexed
// home, draw, away
type PlattParams struct {
	Coef      [3]float64 `json:"coef"`
	Intercept [3]float64 `json:"intercept"`
}

// DirichletParams holds the 3x3 coefficient matrix and intercept vector
// applied to log-probabilities before the softmax
type DirichletParams struct {
	Coef      [3][3]float64 `json:"coef"`
	Intercept [3]float64    `json:"intercept"`
}

// CalibrationArtifact is a league-scoped trained calibrator, versioned
// by the source file's modification time. Exactly one of Platt or
// Dirichlet is set, according to Kind.
type CalibrationArtifact struct {
	League    string           `json:"league"`
	Version   string           `json:"version"`
	Kind      CalibratorKind   `json:"-"`
	Platt     *PlattParams     `json:"platt,omitempty"`
	Dirichlet *DirichletParams `json:"dirichlet,omitempty"`
}

// ClassifierArtifact is the trained linear 1X2 classifier: an explicit
// feature list plus per-class weights over that feature vector.
type ClassifierArtifact struct {
	League    string      `json:"league"`
	Version   string      `json:"version"`
	Features  []string    `json:"features"`
	Weights   [][]float64 `json:"weights"`   // [3][len(Features)]
	Intercept []float64   `json:"intercept"` // [3]
	Means     []float64   `json:"means,omitempty"`
	Scales    []float64   `json:"scales,omitempty"`
}

// DriftLevel is the advisory drift status reported per league
type DriftLevel string

const (
	DriftOK   DriftLevel = "ok"
	DriftWarn DriftLevel = "warn"
	DriftHigh DriftLevel = "high"
)

// DriftStatus is the distribution-drift monitor's advisory report
type DriftStatus struct {
	Level DriftLevel `json:"level"`
	Flags []string   `json:"flags,omitempty"`
}
