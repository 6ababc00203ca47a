package ranking

import "errors"

var (
	// ErrFeatureContractMismatch means an artifact was trained against a
	// different ordered column list or schema version than the feature builder's.
	ErrFeatureContractMismatch = errors.New("ranking: feature contract mismatch")
	// ErrArtifactNotFound means the model or its manifest is missing.
	ErrArtifactNotFound = errors.New("ranking: artifact not found")
	// ErrCorruptArtifact means the stored model failed its checksum or is not
	// the model its manifest describes.
	ErrCorruptArtifact = errors.New("ranking: corrupt artifact")
	// ErrNoTrainingData means the history produced no usable rows.
	ErrNoTrainingData = errors.New("ranking: no training data")
)
