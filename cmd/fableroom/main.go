// Command fableroom runs the play-session orchestration engine: a WebSocket
// server for rooms and matches, a story collaborator for DM turns, and a
// metrics endpoint.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/fableroom/fableroom/internal/adapter/ws"
	"github.com/fableroom/fableroom/internal/archive"
	"github.com/fableroom/fableroom/internal/command"
	"github.com/fableroom/fableroom/internal/coordinator"
	"github.com/fableroom/fableroom/internal/core/dice"
	"github.com/fableroom/fableroom/internal/event"
	"github.com/fableroom/fableroom/internal/narration"
	openainarration "github.com/fableroom/fableroom/internal/narration/openai"
	"github.com/fableroom/fableroom/internal/observe"
	"github.com/fableroom/fableroom/internal/platform/config"
	"github.com/fableroom/fableroom/internal/service"
	"github.com/fableroom/fableroom/internal/state"
	"github.com/fableroom/fableroom/internal/storage/sqlite"
)

const version = "0.1.0"

func main() {
	log.SetPrefix("[FABLEROOM] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownMetrics, err := observe.InitProvider(ctx, "fableroom", version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			log.Printf("shutdown metrics: %v", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := event.NewBus()
	svc := service.New(state.NewRegistry(), bus, dice.New(), service.Config{
		DefaultMinPlayers:    cfg.DefaultMinPlayers,
		DefaultMaxPlayers:    cfg.DefaultMaxPlayers,
		AllowDeclaredOutcome: cfg.AllowDeclaredOutcome,
		FailureDamage:        cfg.FailureDamage,
	})
	archive.New(store, svc, bus)

	bus.Subscribe(event.TypeRoomCreated, func(event.Event) {
		metrics.ActiveRooms.Add(context.Background(), 1)
	})
	bus.Subscribe(event.TypeRoomDeleted, func(event.Event) {
		metrics.ActiveRooms.Add(context.Background(), -1)
	})
	bus.Subscribe(event.TypeTurnCompleted, func(e event.Event) {
		out, err := svc.GameState.Snapshot(e.RoomID)
		if err != nil || !out.OK() {
			return
		}
		snap := out.Payload.(state.RoomSnapshot)
		for _, m := range snap.Matches {
			for _, t := range m.Turns {
				if t.ID == e.TurnID && t.CompletedAt != nil {
					metrics.TurnDuration.Record(context.Background(),
						t.CompletedAt.Sub(t.CreatedAt).Seconds())
				}
			}
		}
	})

	collab, err := newCollaborator(cfg)
	if err != nil {
		return err
	}

	coord := coordinator.New(command.NewFactory(), svc, bus, collab, coordinator.Config{
		NarrationTimeout: cfg.NarrationTimeout,
		NarrationRetries: cfg.NarrationRetries,
	}, metrics)

	wsServer := ws.NewServer(coord, bus)
	coord.Attach(wsServer)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsServer)
	apiSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s", cfg.ListenAddr)
		return ignoreServerClosed(apiSrv.ListenAndServe())
	})
	g.Go(func() error {
		log.Printf("metrics on %s", cfg.MetricsAddr)
		return ignoreServerClosed(metricsSrv.ListenAndServe())
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown api server: %v", err)
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown metrics server: %v", err)
		}
		coord.Wait()
		return nil
	})
	return g.Wait()
}

// newCollaborator selects the story collaborator. Without an API key the
// engine runs fully offline with a deterministic narrator.
func newCollaborator(cfg config.Config) (narration.Collaborator, error) {
	if cfg.OpenAIAPIKey == "" {
		log.Printf("no OpenAI key configured, narration runs offline")
		return narration.NewOffline(), nil
	}
	var opts []openainarration.Option
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openainarration.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return openainarration.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, opts...)
}

func ignoreServerClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
