// Package handlers provides HTTP handlers for classifier training and inference.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/categorization"
)

// ModelRegistry is the part of categorization.Registry the handlers use.
type ModelRegistry interface {
	Current() (*categorization.Model, error)
	Retrain(ctx context.Context, examples []categorization.Example) (*categorization.Model, error)
}

// VersionLister lists training history.
type VersionLister interface {
	List(limit int) ([]categorization.VersionRecord, error)
}

// PredictionClassifier classifies descriptions with the pipeline's
// confidence threshold applied.
type PredictionClassifier interface {
	Classify(model *categorization.Model, descriptions []string) ([]categorization.Prediction, error)
}

// TrainingSource supplies the examples used when a train request carries none.
type TrainingSource func() ([]categorization.Example, error)

// Handler handles classifier HTTP requests
type Handler struct {
	registry   ModelRegistry
	classifier PredictionClassifier
	versions   VersionLister
	source     TrainingSource
	log        zerolog.Logger
}

// NewHandler creates a new classifier handler
func NewHandler(
	registry ModelRegistry,
	classifier PredictionClassifier,
	versions VersionLister,
	source TrainingSource,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		registry:   registry,
		classifier: classifier,
		versions:   versions,
		source:     source,
		log:        log.With().Str("handler", "classifier").Logger(),
	}
}

type trainRequest struct {
	Examples []categorization.Example `json:"examples"`
}

type classifyRequest struct {
	Descriptions []string `json:"descriptions"`
}

// HandleTrain handles POST /api/classifier/train
// An empty body retrains on the configured training set.
func (h *Handler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	examples := req.Examples
	if len(examples) == 0 {
		var err error
		if examples, err = h.source(); err != nil {
			h.log.Error().Err(err).Msg("Failed to load training set")
			h.writeError(w, domain.HTTPStatus(err), err.Error())
			return
		}
	}

	model, err := h.registry.Retrain(r.Context(), examples)
	if err != nil {
		h.log.Error().Err(err).Int("examples", len(examples)).Msg("Classifier training failed")
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}

	h.writeData(w, http.StatusOK, modelInfo(model))
}

// HandleClassify handles POST /api/classifier/classify
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Descriptions) == 0 {
		h.writeError(w, http.StatusBadRequest, "No descriptions provided")
		return
	}

	model, err := h.registry.Current()
	if err != nil {
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}

	predictions, err := h.classifier.Classify(model, req.Descriptions)
	if err != nil {
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"model_version": model.Version,
		"predictions":   predictions,
	})
}

// HandleGetInfo handles GET /api/classifier
func (h *Handler) HandleGetInfo(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{"trained": false}

	if model, err := h.registry.Current(); err == nil {
		data = modelInfo(model)
		data["trained"] = true
	}

	if h.versions != nil {
		history, err := h.versions.List(20)
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to list classifier versions")
		} else {
			data["history"] = history
		}
	}

	h.writeData(w, http.StatusOK, data)
}

func modelInfo(model *categorization.Model) map[string]interface{} {
	return map[string]interface{}{
		"version":    model.Version,
		"trained_at": model.TrainedAt.Format(time.RFC3339),
		"examples":   model.Examples,
		"labels":     model.Labels(),
	}
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
