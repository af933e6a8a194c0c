package categorization

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// VersionRecord describes one trained classifier artifact pair.
type VersionRecord struct {
	Version     string    `json:"version"`
	TrainedAt   time.Time `json:"trained_at"`
	Examples    int       `json:"examples"`
	Labels      []string  `json:"labels"`
	ArtifactDir string    `json:"artifact_dir"`
}

// VersionRepository records classifier training history in fintrack.db.
type VersionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewVersionRepository creates a version repository.
func NewVersionRepository(db *sql.DB, log zerolog.Logger) *VersionRepository {
	return &VersionRepository{
		db:  db,
		log: log.With().Str("repository", "classifier_versions").Logger(),
	}
}

// Record stores a trained model's metadata. Re-recording a version is a no-op.
func (r *VersionRepository) Record(model *Model, artifactDir string) error {
	labels, err := json.Marshal(model.Labels())
	if err != nil {
		return fmt.Errorf("failed to encode labels: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO classifier_versions (version, trained_at, examples, labels, artifact_dir, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(version) DO NOTHING
	`, model.Version, model.TrainedAt.Unix(), model.Examples, string(labels), artifactDir, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record classifier version %s: %w", model.Version, err)
	}

	r.log.Debug().Str("version", model.Version).Msg("Recorded classifier version")
	return nil
}

// Latest returns the most recently trained version, or nil if none exist.
func (r *VersionRepository) Latest() (*VersionRecord, error) {
	records, err := r.List(1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// List returns up to limit versions, newest first.
func (r *VersionRepository) List(limit int) ([]VersionRecord, error) {
	rows, err := r.db.Query(`
		SELECT version, trained_at, examples, labels, artifact_dir
		FROM classifier_versions
		ORDER BY trained_at DESC, created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifier versions: %w", err)
	}
	defer rows.Close()

	var out []VersionRecord
	for rows.Next() {
		var (
			rec       VersionRecord
			trainedAt int64
			labels    string
		)
		if err := rows.Scan(&rec.Version, &trainedAt, &rec.Examples, &labels, &rec.ArtifactDir); err != nil {
			return nil, fmt.Errorf("failed to scan classifier version: %w", err)
		}
		rec.TrainedAt = time.Unix(trainedAt, 0).UTC()
		if err := json.Unmarshal([]byte(labels), &rec.Labels); err != nil {
			return nil, fmt.Errorf("failed to decode labels for %s: %w", rec.Version, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
