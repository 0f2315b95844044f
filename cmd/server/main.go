package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"pong-arena/internal/ai"
	"pong-arena/internal/api"
	"pong-arena/internal/config"
	"pong-arena/internal/game"
	"pong-arena/internal/profile"
	"pong-arena/internal/room"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🏓 ================================")
	log.Println("🏓  PONG ARENA - GAME SERVER")
	log.Println("🏓 ================================")

	appConfig := config.Load()
	gameCfg := appConfig.Game
	serverCfg := appConfig.Server
	limits := appConfig.Limits
	collab := appConfig.Collaborators

	log.Printf("🎮 Simulation: %d TPS, field %.0fx%.0f, serve delay %.1fs",
		gameCfg.TickRate, gameCfg.FieldWidth, gameCfg.FieldHeight, gameCfg.ServeDelay)
	log.Printf("🛡️ Resource limits: %d rooms, %d connections, %d per IP",
		limits.MaxRooms, limits.MaxWSConnections, limits.MaxWSPerIP)

	// Match scheduler: one ticker drives every running match.
	scheduler := game.NewScheduler(game.SchedulerConfig{
		TickRate:   gameCfg.TickRate,
		ServeDelay: gameCfg.ServeDelay,
	})
	scheduler.TickObserver = api.RecordTick

	// Profile service reports are best-effort.
	var notifier room.Notifier
	if collab.ProfileBaseURL != "" {
		notifier = profile.NewClient(collab.ProfileBaseURL)
		log.Printf("📊 Profile service: %s", collab.ProfileBaseURL)
	} else {
		log.Println("📊 Profile service not configured, results stay local")
	}

	manager := room.NewManager(gameCfg, limits, scheduler, notifier)
	scheduler.OnFinish = manager.MatchFinished
	manager.OnCounts = api.UpdateArenaCounts

	// AI opponents either ask the decision service or fall back to a local
	// ball tracker.
	var decider ai.Decider
	if collab.AIServiceURL != "" {
		decider = ai.NewHTTPDecider(collab.AIServiceURL)
		log.Printf("🤖 AI decision service: %s", collab.AIServiceURL)
	} else {
		decider = ai.TrackingDecider{}
		log.Println("🤖 AI decision service not configured, using local tracker")
	}
	manager.BotDriver = func(botID, difficulty string) game.InputDriver {
		return ai.NewController(botID, decider, ai.SampleInterval(difficulty, collab.AISampleEvery))
	}

	debugCfg := api.DefaultObservabilityConfig()
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	server := api.NewServer(manager, serverCfg, limits)

	scheduler.Start()
	log.Println("✅ Match scheduler started")

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop()
	scheduler.Stop()
	log.Println("👋 Goodbye!")
}
