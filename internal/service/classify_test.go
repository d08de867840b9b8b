package service

import (
	"context"
	"errors"
	"testing"

	"airguard/internal/models"
)

func TestClassify_ShortWindowRejected(t *testing.T) {
	t.Parallel()

	client := &fakeClassifierClient{}
	svc := NewClassifyService(client, testLog())

	ev := models.SensorEvent{DeviceID: "dev-1", AQI: 700, Window: makeWindow(59)}
	_, err := svc.Classify(context.Background(), ev)
	if !errors.Is(err, ErrInsufficientWindow) {
		t.Fatalf("want ErrInsufficientWindow, got %v", err)
	}
	if client.calls != 0 {
		t.Fatal("classifier must not be called on a short window")
	}
}

func TestClassify_PassesWindowToClient(t *testing.T) {
	t.Parallel()

	client := &fakeClassifierClient{resp: models.ClassificationResult{
		Cause:          models.CausePollution,
		Confidence:     0.91,
		DecisionSource: models.DecisionModel,
	}}
	svc := NewClassifyService(client, testLog())

	ev := models.SensorEvent{DeviceID: "dev-1", AQI: 700, Window: makeWindow(60)}
	got, err := svc.Classify(context.Background(), ev)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got.Cause != models.CausePollution || got.Confidence != 0.91 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(client.lastReq.Smoke) != 60 || len(client.lastReq.Humidity) != 60 || len(client.lastReq.Temperature) != 60 {
		t.Fatalf("window not forwarded in full: %d/%d/%d samples",
			len(client.lastReq.Smoke), len(client.lastReq.Humidity), len(client.lastReq.Temperature))
	}
	if client.lastReq.AQI != 700 {
		t.Errorf("AQI not forwarded: got %v", client.lastReq.AQI)
	}
}

func TestClassify_ClientFailureFailsSafeToFire(t *testing.T) {
	t.Parallel()

	client := &fakeClassifierClient{err: errors.New("connection refused")}
	svc := NewClassifyService(client, testLog())

	ev := models.SensorEvent{DeviceID: "dev-1", AQI: 700, Window: makeWindow(60)}
	got, err := svc.Classify(context.Background(), ev)
	if err != nil {
		t.Fatalf("client failure must not surface as an error, got %v", err)
	}
	if got.Cause != models.CauseFire {
		t.Errorf("fail-safe cause: want FIRE, got %s", got.Cause)
	}
	if got.Confidence != 0 {
		t.Errorf("fail-safe confidence: want 0, got %v", got.Confidence)
	}
	if got.DecisionSource != models.DecisionErrorFailSafe {
		t.Errorf("fail-safe source: want %q, got %q", models.DecisionErrorFailSafe, got.DecisionSource)
	}
}
