package ranking

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"servicehub/services/features"

	"github.com/goccy/go-json"
)

const (
	// ModelFile holds the gob-encoded, gzip-compressed ensemble.
	ModelFile = "ranker.gob.gz"
	// ManifestFile holds the ordered feature columns the model expects.
	ManifestFile = "feature_cols.json"
)

// Manifest is written next to the model and must always be read with it.
type Manifest struct {
	SchemaVersion int                `json:"schema_version"`
	Columns       []string           `json:"columns"`
	ModelChecksum string             `json:"model_checksum"`
	Version       string             `json:"version"`
	TrainedAt     time.Time          `json:"trained_at"`
	BestIteration int                `json:"best_iteration"`
	ValidNDCG     map[string]float64 `json:"valid_ndcg,omitempty"`
}

// storedFile is the on-disk format of ModelFile.
type storedFile struct {
	Checksum       string
	CompressedData []byte
}

// Store persists ranking artifacts under one directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a store rooted at dir. The directory is created on Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Save writes the model and then its manifest, each through a temporary
// file renamed into place.
func (s *Store) Save(model *Model) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(model); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	hash := sha256.Sum256(raw.Bytes())
	checksum := hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	var file bytes.Buffer
	if err := gob.NewEncoder(&file).Encode(storedFile{Checksum: checksum, CompressedData: compressed.Bytes()}); err != nil {
		return nil, fmt.Errorf("write model file: %w", err)
	}

	manifest := &Manifest{
		SchemaVersion: model.SchemaVersion,
		Columns:       model.Columns,
		ModelChecksum: checksum,
		Version:       model.Version,
		TrainedAt:     model.TrainedAt,
		BestIteration: model.BestIteration,
		ValidNDCG:     model.BestScores,
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	if err := writeAtomic(s.dir, ModelFile, file.Bytes()); err != nil {
		return nil, err
	}
	if err := writeAtomic(s.dir, ManifestFile, manifestData); err != nil {
		return nil, err
	}
	return manifest, nil
}

func writeAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Load reads the model and manifest and verifies that they belong together
// and match the current feature contract.
func (s *Store) Load() (*Model, *Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifestData, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, ManifestFile)
		}
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, nil, fmt.Errorf("%w: decode manifest: %v", ErrCorruptArtifact, err)
	}

	f, err := os.Open(filepath.Join(s.dir, ModelFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, ModelFile)
		}
		return nil, nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, nil, fmt.Errorf("%w: read model file: %v", ErrCorruptArtifact, err)
	}
	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decompress model: %v", ErrCorruptArtifact, err)
	}
	defer func() { _ = gzr.Close() }()
	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read decompressed data: %v", ErrCorruptArtifact, err)
	}

	hash := sha256.Sum256(raw)
	checksum := hex.EncodeToString(hash[:])
	if checksum != sf.Checksum {
		return nil, nil, fmt.Errorf("%w: checksum mismatch: expected %s, got %s", ErrCorruptArtifact, sf.Checksum, checksum)
	}
	if checksum != manifest.ModelChecksum {
		return nil, nil, fmt.Errorf("%w: manifest describes model %s, found %s",
			ErrCorruptArtifact, manifest.ModelChecksum, checksum)
	}

	var model Model
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&model); err != nil {
		return nil, nil, fmt.Errorf("%w: decode model: %v", ErrCorruptArtifact, err)
	}

	if err := checkContract(&manifest, &model); err != nil {
		return nil, nil, err
	}
	return &model, &manifest, nil
}

func checkContract(manifest *Manifest, model *Model) error {
	if manifest.SchemaVersion != features.SchemaVersion || model.SchemaVersion != features.SchemaVersion {
		return fmt.Errorf("%w: schema version %d (model %d), expected %d",
			ErrFeatureContractMismatch, manifest.SchemaVersion, model.SchemaVersion, features.SchemaVersion)
	}
	if !features.SameColumns(manifest.Columns) {
		return fmt.Errorf("%w: manifest columns %v, expected %v", ErrFeatureContractMismatch, manifest.Columns, features.Columns)
	}
	if !features.SameColumns(model.Columns) {
		return fmt.Errorf("%w: model columns %v, expected %v", ErrFeatureContractMismatch, model.Columns, features.Columns)
	}
	return nil
}
