package recommendation

import (
	"errors"
	"fmt"

	"servicehub/config"
	"servicehub/services/ranking"

	"go.uber.org/zap"
)

// SelectScorer resolves the RANKER mode against the artifact store. In auto
// mode a missing artifact falls back to the heuristic; an artifact that is
// present but unusable is always an error.
func SelectScorer(mode string, store *ranking.Store, logger *zap.Logger) (Scorer, *ranking.Manifest, error) {
	if mode == config.RankerHeuristic {
		return HeuristicScorer{}, nil, nil
	}

	model, manifest, err := store.Load()
	switch {
	case err == nil:
		logger.Info("Loaded learned ranker",
			zap.String("dir", store.Dir()),
			zap.String("version", manifest.Version),
			zap.Int("trees", len(model.Trees)),
		)
		return NewLearnedScorer(model), manifest, nil
	case mode == config.RankerAuto && errors.Is(err, ranking.ErrArtifactNotFound):
		logger.Warn("No ranker artifact, serving heuristic", zap.String("dir", store.Dir()))
		return HeuristicScorer{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("load ranker from %s: %w", store.Dir(), err)
	}
}
