package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"expensetracker/internal/config"
	"expensetracker/internal/db"
	"expensetracker/internal/notify"
	"expensetracker/internal/server"
	"expensetracker/pkg/logger"
)

func main() {
	// Parse command-line flags
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Initialize configuration
	config.Initialize()
	log.Printf("Using config file: %s", *configFile)

	zlog := logger.Logger()
	defer zlog.Sync()

	// Initialize database
	db.Initialize()
	db.Migrate()

	// Initialize Discord notifier when enabled
	var notifier server.Notifier
	if viper.GetBool("Discord.Enable") {
		discord, err := notify.NewDiscord(
			viper.GetString("Discord.Token"),
			viper.GetString("Discord.ChannelID"),
			zlog,
		)
		if err != nil {
			log.Fatalf("Failed to initialize Discord notifier: %v", err)
		}
		defer discord.Close()
		notifier = discord
		log.Println("Discord expense notifications enabled")
	}

	tokens := server.NewTokenIssuer(
		viper.GetString("Auth.JWTSecret"),
		time.Duration(viper.GetInt("Auth.TokenTTLMinutes"))*time.Minute,
	)

	srv := server.New(db.NewStore(), tokens, notifier, zlog)

	httpServer := &http.Server{
		Addr:    ":" + viper.GetString("Server.Port"),
		Handler: srv.Router(),
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle termination signals
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalChan
		log.Println("Received termination signal, shutting down gracefully...")
		cancel()
	}()

	go func() {
		log.Printf("Expense tracker API listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	log.Println("Expense tracker API shut down")
}
