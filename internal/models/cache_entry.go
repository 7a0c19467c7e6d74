package models

import "time"

// CacheEntry is one row of the prediction result cache. Written once,
// read many times, deleted lazily on expiry-on-read.
type CacheEntry struct {
	Key               string    `json:"key" db:"key"`
	Payload           []byte    `json:"payload" db:"payload"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	ExpiresAt         time.Time `json:"expires_at" db:"expires_at"`
	ModelVersion      string    `json:"model_version" db:"model_version"`
	FeatureVersion    string    `json:"feature_version" db:"feature_version"`
	CalibratorVersion string    `json:"calibrator_version" db:"calibrator_version"`
	InputsHash        string    `json:"inputs_hash" db:"inputs_hash"`
}

// Expired reports whether the entry is past its expiry instant
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
