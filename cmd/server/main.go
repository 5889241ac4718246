package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"pitchside/internal/api"
	"pitchside/internal/archive"
	"pitchside/internal/config"
	"pitchside/internal/match"
	"pitchside/internal/roster"
	"pitchside/internal/telemetry"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	homePath := flag.String("home", "", "home team YAML (generated when empty)")
	awayPath := flag.String("away", "", "away team YAML (generated when empty)")
	flag.Parse()

	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("⚽ ================================")
	log.Println("⚽  PITCHSIDE - LIVE MATCH SERVER")
	log.Println("⚽ ================================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}
	if cfg.Match.RandomSeed == 0 {
		if cfg.Match.RandomSeed, err = config.NewSeed(); err != nil {
			log.Fatalf("❌ Seed: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Observability)
	if err != nil {
		log.Printf("⚠️ Tracing disabled: %v", err)
	} else if cfg.Observability.TraceEndpoint != "" {
		log.Printf("🔭 Traces exported to %s", cfg.Observability.TraceEndpoint)
	}

	home, err := team(*homePath, "Home", "4-3-3", cfg.Match.RandomSeed)
	if err != nil {
		log.Fatalf("❌ Home team: %v", err)
	}
	away, err := team(*awayPath, "Away", "4-4-2", cfg.Match.RandomSeed+1)
	if err != nil {
		log.Fatalf("❌ Away team: %v", err)
	}

	engine, err := match.New(cfg.Match, home, away, match.WithObserver(api.MatchMetrics{}))
	if err != nil {
		log.Fatalf("❌ Match: %v", err)
	}
	log.Printf("🆔 Match %s, seed %d", engine.MatchID(), engine.Seed())

	if err := engine.Events().Start(cfg.Storage.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if cfg.Storage.EventLogPath != "" {
		log.Printf("📝 Event log: %s", cfg.Storage.EventLogPath)
	}

	debugServer := api.StartDebugServer(cfg.Observability)
	server := api.NewServer(engine, cfg.Server)

	serverCtx, stopServer := context.WithCancel(context.Background())
	defer stopServer()
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start(serverCtx) }()

	engine.Start(ctx, cfg.Server.Pace)
	log.Println("✅ Server ready! Press Ctrl+C to stop.")

	select {
	case <-engine.Done():
		res := engine.Result()
		log.Printf("🏁 %s %d - %d %s (%s)", home.Name, res.Score[match.Home], res.Score[match.Away], away.Name, res.Phase)
		if err := engine.Err(); err != nil {
			log.Printf("⚠️ Match ended with error: %v", err)
		}
		archiveResult(cfg.Storage.ArchivePath, engine)
		// Keep serving the final state until asked to stop.
		select {
		case <-ctx.Done():
		case err := <-serverErr:
			log.Printf("❌ %v", err)
		}
	case <-ctx.Done():
	case err := <-serverErr:
		log.Printf("❌ %v", err)
	}

	log.Println("🛑 Shutting down...")
	engine.Stop()
	<-engine.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopServer()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ %v", err)
	}
	if debugServer != nil {
		debugServer.Shutdown(shutdownCtx)
	}
	engine.Events().Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("⚠️ Trace flush: %v", err)
	}
	log.Println("👋 Goodbye!")
}

func team(path, name, formation string, seed int64) (roster.Team, error) {
	if path != "" {
		return roster.Load(path)
	}
	return roster.Generate(name, formation, 0, seed)
}

func archiveResult(path string, engine *match.Engine) {
	if path == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := archive.Open(ctx, path)
	if err != nil {
		log.Printf("⚠️ Archive: %v", err)
		return
	}
	defer store.Close()

	res := engine.Result()
	if err := store.SaveMatch(ctx, res, [2]string{}, res.Events); err != nil {
		log.Printf("⚠️ Archive: %v", err)
		return
	}
	log.Printf("🗄️ Archived match %s to %s", res.MatchID, path)
}
