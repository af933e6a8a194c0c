package categorization

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/fintrack/internal/domain"
)

// Artifact file names. The two blobs are companions and must carry the same version.
const (
	VectorizerFile = "vectorizer.msgpack"
	ClassifierFile = "classifier.msgpack"

	artifactFormat = 1
)

// ErrNotTrained means no usable classifier artifact exists.
var ErrNotTrained = errors.New("classifier not trained: train first")

func notTrained(resource string, cause error) error {
	return fmt.Errorf("%w: %w", ErrNotTrained, &domain.MissingInputError{Resource: resource, Hint: "train first", Err: cause})
}

type vectorizerBlob struct {
	Format     int         `msgpack:"format"`
	Version    string      `msgpack:"version"`
	Vectorizer *Vectorizer `msgpack:"vectorizer"`
}

type classifierBlob struct {
	Format    int       `msgpack:"format"`
	Version   string    `msgpack:"version"`
	TrainedAt time.Time `msgpack:"trained_at"`
	Examples  int       `msgpack:"examples"`
	Forest    *Forest   `msgpack:"forest"`
}

// ArtifactStore persists a model as two msgpack blobs in a directory.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates a store rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Dir returns the artifact directory.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Exists reports whether both companion blobs are present.
func (s *ArtifactStore) Exists() bool {
	for _, name := range []string{VectorizerFile, ClassifierFile} {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
			return false
		}
	}
	return true
}

// Save writes both blobs. Each file is replaced atomically via rename; a
// crash between the two renames leaves mismatched versions, which Load rejects.
func (s *ArtifactStore) Save(model *Model) error {
	if model == nil || model.Vectorizer == nil || model.Forest == nil {
		return fmt.Errorf("cannot save an empty model")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	vec, err := msgpack.Marshal(vectorizerBlob{Format: artifactFormat, Version: model.Version, Vectorizer: model.Vectorizer})
	if err != nil {
		return fmt.Errorf("failed to encode vectorizer: %w", err)
	}
	cls, err := msgpack.Marshal(classifierBlob{
		Format:    artifactFormat,
		Version:   model.Version,
		TrainedAt: model.TrainedAt,
		Examples:  model.Examples,
		Forest:    model.Forest,
	})
	if err != nil {
		return fmt.Errorf("failed to encode classifier: %w", err)
	}

	if err := writeAtomic(filepath.Join(s.dir, VectorizerFile), vec); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.dir, ClassifierFile), cls)
}

// Load reads and validates both blobs. Any missing, unreadable or
// inconsistent artifact is reported as ErrNotTrained.
func (s *ArtifactStore) Load() (*Model, error) {
	var vb vectorizerBlob
	if err := readBlob(filepath.Join(s.dir, VectorizerFile), &vb); err != nil {
		return nil, err
	}
	var cb classifierBlob
	if err := readBlob(filepath.Join(s.dir, ClassifierFile), &cb); err != nil {
		return nil, err
	}

	switch {
	case vb.Format != artifactFormat || cb.Format != artifactFormat:
		return nil, notTrained(s.dir, fmt.Errorf("unsupported artifact format %d/%d", vb.Format, cb.Format))
	case vb.Version != cb.Version:
		return nil, notTrained(s.dir, fmt.Errorf("artifact versions differ: %s vs %s", vb.Version, cb.Version))
	case vb.Vectorizer == nil || len(vb.Vectorizer.Vocabulary) != len(vb.Vectorizer.IDF):
		return nil, notTrained(VectorizerFile, errors.New("invalid vectorizer state"))
	case cb.Forest == nil || len(cb.Forest.Trees) == 0 || len(cb.Forest.Classes) == 0:
		return nil, notTrained(ClassifierFile, errors.New("invalid classifier state"))
	}

	return &Model{
		Version:    cb.Version,
		TrainedAt:  cb.TrainedAt,
		Examples:   cb.Examples,
		Vectorizer: vb.Vectorizer,
		Forest:     cb.Forest,
	}, nil
}

func readBlob(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return notTrained(path, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return notTrained(path, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
