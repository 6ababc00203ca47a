package ranking

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"servicehub/services/features"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *Model {
	return &Model{
		Columns:       append([]string(nil), features.Columns...),
		SchemaVersion: features.SchemaVersion,
		Trees: []Tree{{Nodes: []Node{
			{Feature: 4, Threshold: 1, Left: 1, Right: 2},
			{Left: -1, Right: -1, Value: 0.5},
			{Left: -1, Right: -1, Value: -0.5},
		}}},
		BestIteration: 1,
		BestScores:    map[string]float64{"ndcg@5": 0.9},
		Version:       "run-1",
		TrainedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "models"))

	manifest, err := store.Save(sampleModel())
	require.NoError(t, err)
	assert.Equal(t, features.Columns, manifest.Columns)
	assert.NotEmpty(t, manifest.ModelChecksum)

	model, loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, manifest.ModelChecksum, loaded.ModelChecksum)
	assert.Equal(t, "run-1", model.Version)
	assert.Equal(t, 1, model.BestIteration)

	near := make([]float64, len(features.Columns))
	far := make([]float64, len(features.Columns))
	far[4] = 5
	assert.Equal(t, 0.5, model.Predict(near))
	assert.Equal(t, -0.5, model.Predict(far))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary files must not be left behind")
}

func TestStore_Missing(t *testing.T) {
	store := NewStore(t.TempDir())
	_, _, err := store.Load()
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	_, err = store.Save(sampleModel())
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(store.Dir(), ModelFile)))
	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func rewriteManifest(t *testing.T, store *Store, edit func(m *Manifest)) {
	t.Helper()
	path := filepath.Join(store.Dir(), ManifestFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	edit(&m)
	data, err = json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestStore_ContractMismatch(t *testing.T) {
	tests := []struct {
		name  string
		model func() *Model
		edit  func(m *Manifest)
	}{
		{
			name:  "reordered manifest columns",
			model: sampleModel,
			edit: func(m *Manifest) {
				m.Columns[0], m.Columns[1] = m.Columns[1], m.Columns[0]
			},
		},
		{
			name:  "manifest schema version",
			model: sampleModel,
			edit:  func(m *Manifest) { m.SchemaVersion = features.SchemaVersion + 1 },
		},
		{
			name: "model trained on fewer columns",
			model: func() *Model {
				m := sampleModel()
				m.Columns = m.Columns[:9]
				return m
			},
			edit: func(m *Manifest) { m.Columns = append([]string(nil), features.Columns...) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(t.TempDir())
			_, err := store.Save(tt.model())
			require.NoError(t, err)
			rewriteManifest(t, store, tt.edit)

			_, _, err = store.Load()
			assert.ErrorIs(t, err, ErrFeatureContractMismatch)
		})
	}
}

func TestStore_CorruptModel(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Save(sampleModel())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), ModelFile), []byte("garbage"), 0o600))

	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrCorruptArtifact)
}

func TestStore_ManifestFromAnotherModel(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Save(sampleModel())
	require.NoError(t, err)
	rewriteManifest(t, store, func(m *Manifest) { m.ModelChecksum = "deadbeef" })

	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrCorruptArtifact)
	assert.NotErrorIs(t, err, ErrFeatureContractMismatch)
}
