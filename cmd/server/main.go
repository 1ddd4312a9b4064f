package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tkohno/raceday/internal/clients/predictor"
	"github.com/tkohno/raceday/internal/config"
	"github.com/tkohno/raceday/internal/database"
	"github.com/tkohno/raceday/internal/database/repositories"
	"github.com/tkohno/raceday/internal/metrics"
	"github.com/tkohno/raceday/internal/modules/autopredict"
	"github.com/tkohno/raceday/internal/modules/notify"
	"github.com/tkohno/raceday/internal/modules/racecard"
	"github.com/tkohno/raceday/internal/modules/recommend"
	"github.com/tkohno/raceday/internal/scheduler"
	"github.com/tkohno/raceday/internal/server"
	"github.com/tkohno/raceday/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: os.Getenv("DEV_MODE") == "true",
	})

	log.Info().Msg("Starting raceday")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Collaborators
	predictorClient := predictor.New(cfg.PredictorServiceURL, cfg.ListTimeout, cfg.PredictTimeout, log)
	oddsRepo := repositories.NewOddsRepository(db.Conn(), cfg.DBQueryTimeout, log)
	notifier := notify.NewDiscordNotifier(cfg.DiscordWebhookURL, cfg.NotifyTimeout, log)

	// Core
	cards := racecard.NewService(predictorClient, m.DateMismatchDrops, log)
	engine := recommend.NewEngine(oddsRepo, recommend.DefaultThresholds(), log)
	pipeline := autopredict.NewPipeline(predictorClient, engine, notifier, m, log)
	state := autopredict.NewState()
	window := autopredict.Window{Lead: cfg.FinalLead, Tolerance: cfg.FinalTolerance}

	// Scheduler
	sched := scheduler.New(log)

	finalJob := autopredict.NewFinalPredictionJob(cards, pipeline, state, window, m, time.Local, log)
	if err := sched.AddJob(fmt.Sprintf("@every %s", cfg.CheckInterval), finalJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register final prediction job")
	}

	eveningJob := autopredict.NewEveningPredictionJob(cards, pipeline, state, m, time.Local, log)
	eveningSpec := fmt.Sprintf("0 %d %d * * *", cfg.EveningMinute, cfg.EveningHour)
	if err := sched.AddJob(eveningSpec, eveningJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register evening prediction job")
	}

	sched.Start()
	defer sched.Stop()

	// Admin HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Config:  cfg,
		State:   state,
		DevMode: cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Dur("check_interval", cfg.CheckInterval).
		Dur("final_lead", cfg.FinalLead).
		Dur("final_tolerance", cfg.FinalTolerance).
		Msg("raceday started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("raceday stopped")
}
