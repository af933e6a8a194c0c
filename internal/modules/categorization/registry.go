package categorization

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// VersionRecorder persists training history. Optional.
type VersionRecorder interface {
	Record(model *Model, artifactDir string) error
}

// Registry holds the model currently used for inference. Retraining builds
// a new model off to the side and swaps it in once persisted, so readers
// always see a complete model.
type Registry struct {
	store    *ArtifactStore
	versions VersionRecorder
	opts     TrainOptions
	log      zerolog.Logger

	mu      sync.RWMutex
	current *Model

	trainMu sync.Mutex
}

// NewRegistry creates a registry backed by an artifact store. versions may be nil.
func NewRegistry(store *ArtifactStore, versions VersionRecorder, opts TrainOptions, log zerolog.Logger) *Registry {
	return &Registry{
		store:    store,
		versions: versions,
		opts:     opts,
		log:      log.With().Str("component", "classifier_registry").Logger(),
	}
}

// Load reads the persisted artifacts into memory. Missing artifacts yield
// ErrNotTrained and leave the registry empty.
func (r *Registry) Load() error {
	model, err := r.store.Load()
	if err != nil {
		return err
	}
	r.swap(model)
	r.log.Info().
		Str("version", model.Version).
		Int("labels", len(model.Forest.Classes)).
		Msg("Loaded classifier artifacts")
	return nil
}

// Current returns the model in use, or ErrNotTrained.
func (r *Registry) Current() (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil, notTrained(r.store.Dir(), nil)
	}
	return r.current, nil
}

// Trained reports whether a model is available.
func (r *Registry) Trained() bool {
	_, err := r.Current()
	return err == nil
}

// Retrain fits a new model, saves the artifacts and makes it current.
// Concurrent retrains are serialized; inference continues against the
// previous model until the swap.
func (r *Registry) Retrain(ctx context.Context, examples []Example) (*Model, error) {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()

	model, err := Train(ctx, examples, r.opts)
	if err != nil {
		return nil, err
	}
	if err := r.store.Save(model); err != nil {
		return nil, fmt.Errorf("failed to save classifier artifacts: %w", err)
	}
	if r.versions != nil {
		if err := r.versions.Record(model, r.store.Dir()); err != nil {
			r.log.Warn().Err(err).Str("version", model.Version).Msg("Failed to record classifier version")
		}
	}

	r.swap(model)
	r.log.Info().
		Str("version", model.Version).
		Int("examples", model.Examples).
		Int("labels", len(model.Forest.Classes)).
		Msg("Classifier retrained")
	return model, nil
}

func (r *Registry) swap(model *Model) {
	r.mu.Lock()
	r.current = model
	r.mu.Unlock()
}
