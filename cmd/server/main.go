package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"pomodisc/backend/internal/audio"
	"pomodisc/backend/internal/clock"
	"pomodisc/backend/internal/config"
	"pomodisc/backend/internal/db"
	"pomodisc/backend/internal/handler"
	"pomodisc/backend/internal/media"
	"pomodisc/backend/internal/media/library"
	"pomodisc/backend/internal/media/remote"
	"pomodisc/backend/internal/model"
	"pomodisc/backend/internal/repository"
	"pomodisc/backend/internal/router"
	"pomodisc/backend/internal/service"
	"pomodisc/backend/internal/settings"
	"pomodisc/backend/internal/stream"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database, db.MigrationSource(cfg.MigrationsDir)); err != nil {
		return err
	}

	settingsRepo := repository.NewSettingsRepository(database)
	if moved, err := settings.MigrateLegacy(ctx, settingsRepo); err != nil {
		logger.Warn("legacy settings migration failed", "error", err)
	} else if moved {
		logger.Info("migrated legacy break url to the short break deck")
	}

	catalog := media.DefaultCatalog(cfg.AudioDir)
	if cfg.LibraryCatalog != "" {
		if catalog, err = media.LoadCatalog(cfg.LibraryCatalog, cfg.AudioDir); err != nil {
			return err
		}
	}

	// The loop outlives the signal context so teardown can still run on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := clock.NewLoop()
	go loop.Run(loopCtx)

	mixer := audio.NewMixer()
	go mixer.Run(loopCtx)
	frames := stream.NewBroadcaster[[]int16](32)
	go frames.Run(loopCtx, mixer.Frames())

	hub := remote.NewHub(logger.With("component", "remote"))
	youtube := remote.NewFactory(hub, loop.Post)
	lib := library.NewFactory(mixer, audio.DecodeFile, loop.Post, logger.With("component", "library"))

	alarmCue := lib.NewLoopingPlayer(model.SessionType("alarm"), func(code int) {
		logger.Warn("alarm cue unavailable", "src", cfg.AlarmSrc, "code", code)
	}, false)

	pomodoroService := service.NewPomodoroService(service.Deps{
		Loop:         loop,
		Store:        settings.Open(ctx, settingsRepo, logger.With("component", "settings")),
		Phases:       repository.NewPhaseRepository(database),
		Catalog:      catalog,
		Factories:    []media.Factory{youtube, lib},
		Remote:       youtube,
		AlarmCue:     alarmCue,
		AlarmRef:     media.Reference{Kind: model.SourceLibrary, ID: "alarm", Src: cfg.AlarmSrc},
		ThreePhase:   cfg.ThreePhase,
		TickInterval: cfg.TickInterval,
		Logger:       logger,
	})
	defer pomodoroService.Close()
	hub.OnConnect(func() { loop.Post(pomodoroService.Refresh) })

	authService, err := service.NewAuthService(cfg.AccessPassword, cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	var streams router.Streams
	if cfg.StreamBitrate > 0 {
		streams.Audio = stream.NewHTTPHandler(frames, cfg.StreamBitrate, logger.With("component", "http-stream"))
		offer := stream.NewWebRTCHandler(frames, cfg.StreamBitrate, logger.With("component", "webrtc"))
		defer offer.Close()
		streams.Offer = offer
	}

	engine := router.New(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewPomodoroHandler(pomodoroService),
		handler.NewPlayerHandler(hub, pomodoroService),
		streams,
		cfg.CORSOrigins,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("backend listening",
			"port", cfg.Port,
			"three_phase", cfg.ThreePhase,
			"auth", authService.Enabled(),
			"tracks", len(catalog.Tracks()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	return nil
}
