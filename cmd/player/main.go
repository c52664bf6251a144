package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidra-player/internal/compositor"
	"vidra-player/internal/engine"
	"vidra-player/internal/host"
	"vidra-player/internal/platform/config"
	"vidra-player/internal/platform/logger"
	"vidra-player/internal/platform/metrics"
	"vidra-player/internal/project"
	"vidra-player/internal/renderer"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	refreshHz := config.GetEnvFloat("REFRESH_HZ", 60)
	manifestPath := config.GetEnv("PROJECT_MANIFEST", "")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)
	met := metrics.New()

	assets := renderer.NewAssetStore()
	rend := renderer.NewSoftware(assets)
	hub := host.NewHub(log)
	comp := compositor.New(hub, rend, log, met)
	surface := engine.NewMemorySurface()

	ctrl := engine.NewController(engine.Options{
		Loader: func(ctx context.Context) (renderer.FrameRenderer, error) {
			return rend, nil
		},
		Scheduler: engine.NewTimerScheduler(refreshHz),
		Output:    surface,
		Sink:      comp,
		Observer:  hub,
		Logger:    log,
		Metrics:   met,
	})
	if err := ctrl.Init(context.Background()); err != nil {
		log.Error("engine init failed", "error", err)
		os.Exit(1)
	}

	if manifestPath != "" {
		if err := loadManifest(ctrl, comp, assets, manifestPath); err != nil {
			log.Error("project manifest load failed", "manifest", manifestPath, "error", err)
			os.Exit(1)
		}
		log.Info("project loaded from manifest", "manifest", manifestPath)
	}

	h := host.NewHandler(ctrl, comp, surface, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() {
			met.SetAssetsLoaded(assets.Len())
			met.SetActiveOverlays(comp.SurfaceCount())
		}).ServeHTTP(w, r)
	})
	r.Get("/ws", hub.ServeWS)
	r.Route("/playback", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Get("/frame.png", h.Frame)
		r.Post("/play", h.Play)
		r.Post("/pause", h.Pause)
		r.Post("/stop", h.Stop)
		r.Post("/seek", h.Seek)
		r.Post("/click", h.Click)
		r.Post("/mouse", h.SetMouse)
		r.Get("/mouse", h.Mouse)
	})
	r.Route("/project", func(r chi.Router) {
		r.Post("/load", h.LoadProject)
		r.Route("/layers/{layer_id}", func(r chi.Router) {
			r.Post("/captions", h.Captions)
			r.Post("/background", h.RemoveBackground)
		})
	})
	r.Post("/assets/{asset_id}", h.LoadAsset)
	r.Post("/display", h.Resize)
	r.Post("/vars/{name}", h.SetVar)
	r.Get("/vars/{name}", h.GetVar)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("player starting",
		"port", port,
		"refresh_hz", refreshHz,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	if err := ctrl.Pause(); err == nil {
		log.Info("playback paused for shutdown")
	}
	comp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("player stopped")
}

// loadManifest reads a project manifest, prefetches its assets, and loads
// the project source into the engine.
func loadManifest(ctrl *engine.Controller, comp *compositor.Compositor, assets *renderer.AssetStore, path string) error {
	m, err := project.ReadManifest(path)
	if err != nil {
		return err
	}
	if err := assets.Prefetch(context.Background(), m.AssetFiles()); err != nil {
		return err
	}
	source, err := os.ReadFile(m.Source)
	if err != nil {
		return err
	}
	if err := ctrl.LoadSource(string(source)); err != nil {
		return err
	}
	if m.Display.Width > 0 && m.Display.Height > 0 {
		comp.SetDisplaySize(float64(m.Display.Width), float64(m.Display.Height))
	}
	return nil
}
