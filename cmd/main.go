package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airguard/internal/handlers"
	"airguard/internal/logger"
	"airguard/internal/repository"
	"airguard/internal/server"
	"airguard/internal/service"

	"github.com/spf13/viper"
)

const defaultSimTick = 2 * time.Second

// @title           AirGuard API
// @description     Environmental telemetry mitigation engine: AQI tiering, fire/pollution classification, water-gated sprinklers.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(db)
	services := service.NewService(repos, serviceConfig(), log)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start simulator (via composed service)
	if viper.GetBool("simulator.enabled") {
		go services.Simulator.Run(ctx, simTick())
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// serviceConfig maps config keys to service tunables; zero values fall back
// to the service-layer defaults.
func serviceConfig() service.Config {
	return service.Config{
		SigningKey:        viper.GetString("auth.signing_key"),
		ClassifierURL:     viper.GetString("classifier.url"),
		ClassifierTimeout: viper.GetDuration("classifier.timeout"),
		DedupWindow:       viper.GetDuration("alerts.dedup_window"),
		Tracker: service.TrackerConfig{
			SprinklingCooldown:  viper.GetDuration("cooldowns.sprinkling"),
			VentilationCooldown: viper.GetDuration("cooldowns.ventilation"),
			DroneCooldown:       viper.GetDuration("cooldowns.drone"),
			SafetyDelay:         viper.GetDuration("cooldowns.sprinkler_safety_delay"),
		},
		SimDeviceID: viper.GetString("simulator.device_id"),
		SimZone:     viper.GetString("simulator.zone"),
		SimTankID:   viper.GetString("simulator.tank_id"),
	}
}

func simTick() time.Duration {
	if d := viper.GetDuration("simulator.tick"); d > 0 {
		return d
	}
	return defaultSimTick
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "airguard.db")
		dbPath = "airguard.db"
	}
	return repository.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
