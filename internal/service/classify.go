package service

import (
	"context"
	"errors"
	"fmt"

	"airguard/internal/classifier"
	"airguard/internal/logger"
	"airguard/internal/models"
)

// ErrInsufficientWindow rejects classification before the boundary is called:
// a short window is a data problem, not a classifier failure, so no fail-safe
// cause is substituted for it.
var ErrInsufficientWindow = errors.New("insufficient sensor window for classification")

// ClassifierClient is the outbound boundary to the external model.
type ClassifierClient interface {
	Classify(ctx context.Context, req classifier.Request) (models.ClassificationResult, error)
}

// ClassifyService wraps the classifier client with the fail-closed policy:
// any call failure (transport error, timeout, malformed or error response)
// resolves to FIRE with zero confidence. Misreading pollution as fire only
// withholds mitigation hardware; misreading fire as pollution would deploy
// water and drones into a live fire, so errors always land on the FIRE side.
type ClassifyService struct {
	client ClassifierClient
	log    *logger.Logger
}

func NewClassifyService(client ClassifierClient, log *logger.Logger) *ClassifyService {
	return &ClassifyService{client: client, log: log}
}

// failSafeResult is the fail-closed verdict substituted on classifier failure.
func failSafeResult() models.ClassificationResult {
	return models.ClassificationResult{
		Cause:          models.CauseFire,
		Confidence:     0.0,
		DecisionSource: models.DecisionErrorFailSafe,
	}
}

// Classify validates the event window and obtains a cause verdict.
// Returns ErrInsufficientWindow (no verdict) when the window is too short.
func (s *ClassifyService) Classify(ctx context.Context, ev models.SensorEvent) (models.ClassificationResult, error) {
	if len(ev.Window) < models.MinClassificationSamples {
		return models.ClassificationResult{}, fmt.Errorf("%w: %d samples (minimum %d)",
			ErrInsufficientWindow, len(ev.Window), models.MinClassificationSamples)
	}

	req := classifier.Request{
		Smoke:       make([]float64, 0, len(ev.Window)),
		Humidity:    make([]float64, 0, len(ev.Window)),
		Temperature: make([]float64, 0, len(ev.Window)),
		AQI:         ev.AQI,
	}
	for _, r := range ev.Window {
		req.Smoke = append(req.Smoke, r.Smoke)
		req.Humidity = append(req.Humidity, r.Humidity)
		req.Temperature = append(req.Temperature, r.Temperature)
	}

	result, err := s.client.Classify(ctx, req)
	if err != nil {
		if s.log != nil {
			s.log.Errorw("classifier_failed_fail_safe_fire", "err", err, "device", ev.DeviceID, "aqi", ev.AQI)
		}
		return failSafeResult(), nil
	}
	return result, nil
}
