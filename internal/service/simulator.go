package service

import (
	"context"
	"math/rand"
	"time"

	"airguard/internal/logger"
	"airguard/internal/models"
)

// ----------- Simulation constants -----------
const (
	BaselineAQI     = 60.0  // clean-air baseline
	AQIJitter       = 15.0  // random walk amplitude per tick
	EpisodeChance   = 0.02  // chance per tick that a pollution episode starts
	EpisodePeakAQI  = 1200.0
	EpisodeRampAQI  = 180.0 // AQI climb per tick during an episode
	EpisodeDecayAQI = 90.0  // AQI fall per tick after an episode peaks

	TankDrainPerTick  = 1.5 // percent drained while sprinklers run
	TankRefillChance  = 0.01
	TankRefillPerTick = 25.0
)

// SimulatorService feeds synthetic sensor traffic through the real ingestion
// path: drifting AQI readings per device and a slowly draining tank. It
// exists for demos and local development; production traffic arrives over the
// HTTP ingestion endpoints instead.
type SimulatorService struct {
	telemetry Telemetry
	tracker   *AutomationTracker
	log       *logger.Logger

	deviceID string
	zone     string
	tankID   string

	aqi       float64
	inEpisode bool
	peaked    bool
	tankLevel float64
	rng       *rand.Rand
}

func NewSimulatorService(telemetry Telemetry, tracker *AutomationTracker, deviceID, zone, tankID string, log *logger.Logger) *SimulatorService {
	return &SimulatorService{
		telemetry: telemetry,
		tracker:   tracker,
		log:       log,
		deviceID:  deviceID,
		zone:      zone,
		tankID:    tankID,
		aqi:       BaselineAQI,
		tankLevel: 85.0,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.step(ctx, now.UTC())
		}
	}
}

func (s *SimulatorService) step(ctx context.Context, now time.Time) {
	s.advanceAQI()

	ev := models.SensorEvent{
		DeviceID:  s.deviceID,
		Zone:      s.zone,
		Timestamp: now,
		AQI:       s.aqi,
		Window:    s.sampleWindow(now),
	}
	if _, err := s.telemetry.ProcessEvent(ctx, ev); err != nil {
		s.log.Errorw("simulator_event_failed", "err", err, "aqi", s.aqi)
	}

	s.advanceTank()
	upd := models.WaterLevelUpdate{
		TankID:         s.tankID,
		WaterLevel:     s.tankLevel,
		SensorDeviceID: s.deviceID,
	}
	if _, err := s.telemetry.ProcessWaterLevelUpdate(ctx, upd); err != nil {
		s.log.Errorw("simulator_tank_update_failed", "err", err, "level", s.tankLevel)
	}
}

// advanceAQI is a bounded random walk with occasional pollution episodes that
// climb past the drone tier and then decay back toward baseline.
func (s *SimulatorService) advanceAQI() {
	switch {
	case s.inEpisode && !s.peaked:
		s.aqi += EpisodeRampAQI
		if s.aqi >= EpisodePeakAQI {
			s.aqi = EpisodePeakAQI
			s.peaked = true
		}
	case s.inEpisode && s.peaked:
		s.aqi -= EpisodeDecayAQI
		if s.aqi <= BaselineAQI {
			s.aqi = BaselineAQI
			s.inEpisode = false
			s.peaked = false
		}
	default:
		s.aqi += (s.rng.Float64()*2 - 1) * AQIJitter
		if s.aqi < 10 {
			s.aqi = 10
		}
		if s.rng.Float64() < EpisodeChance {
			s.inEpisode = true
			s.peaked = false
		}
	}
}

// advanceTank drains while sprinklers run and occasionally refills.
func (s *SimulatorService) advanceTank() {
	if s.tracker.IsActive(models.CapSprinkling) {
		s.tankLevel -= TankDrainPerTick
		if s.tankLevel < 0 {
			s.tankLevel = 0
		}
	}
	if s.rng.Float64() < TankRefillChance {
		s.tankLevel += TankRefillPerTick
		if s.tankLevel > 100 {
			s.tankLevel = 100
		}
	}
}

// sampleWindow fabricates a full classification window consistent with the
// current AQI: pollution-shaped most of the time, fire-shaped (high smoke,
// low humidity, high temperature) in a minority of episodes.
func (s *SimulatorService) sampleWindow(now time.Time) []models.SensorReading {
	n := models.MinClassificationSamples
	window := make([]models.SensorReading, 0, n)

	fireShaped := s.inEpisode && s.rng.Float64() < 0.3
	for i := 0; i < n; i++ {
		r := models.SensorReading{
			Timestamp:   now.Add(-time.Duration(n-i) * time.Second),
			Smoke:       s.aqi/10 + s.rng.Float64()*5,
			Humidity:    55 + s.rng.Float64()*10,
			Temperature: 24 + s.rng.Float64()*4,
		}
		if fireShaped {
			r.Smoke *= 3
			r.Humidity = 15 + s.rng.Float64()*5
			r.Temperature = 60 + s.rng.Float64()*20
		}
		window = append(window, r)
	}
	return window
}
