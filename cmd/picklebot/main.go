package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/genechuang/picklebot/common/version"
	"github.com/genechuang/picklebot/internal/picklebot/bot"
	"github.com/genechuang/picklebot/internal/picklebot/config"
	"github.com/genechuang/picklebot/internal/picklebot/greenapi"
	"github.com/genechuang/picklebot/internal/picklebot/handlers"
	"github.com/genechuang/picklebot/internal/picklebot/intent"
	"github.com/genechuang/picklebot/internal/picklebot/observability"
	"github.com/genechuang/picklebot/internal/picklebot/pending"
	"github.com/genechuang/picklebot/internal/picklebot/roster"
	"github.com/genechuang/picklebot/internal/picklebot/server"
	"github.com/genechuang/picklebot/internal/picklebot/store"
)

func main() {
	fmt.Printf("SMAD Picklebot\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	// Load .env if present; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	observability.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pending-action gate, only when a database path is configured.
	var gate *pending.Gate
	if cfg.Pending.DatabasePath != "" {
		s, err := store.New(cfg.Pending.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer s.Close()

		secret := []byte(cfg.Pending.SigningSecret)
		if len(secret) == 0 {
			// Ephemeral secret: tokens do not survive a restart.
			generated, err := randomSecret()
			if err != nil {
				return fmt.Errorf("generating signing secret: %w", err)
			}
			secret = generated
			slog.Warn("PICKLEBOT_SIGNING_SECRET not set, using an ephemeral secret")
		}

		gate = pending.NewGate(pending.NewStore(s.DB()), secret, cfg.Pending.TTL)
		go expireLoop(ctx, gate)
	} else {
		slog.Info("PICKLEBOT_DB_PATH not set, confirmation codes disabled")
	}

	// LLM-backed classifier, falling back to deterministic matching when no
	// key is configured.
	var provider intent.Provider
	if cfg.Anthropic.Configured() {
		provider = intent.NewAnthropic(intent.AnthropicConfig{
			APIKey:  cfg.Anthropic.APIKey,
			BaseURL: cfg.Anthropic.BaseURL,
			Model:   cfg.Anthropic.Model,
			Timeout: cfg.Anthropic.Timeout,
		})
	} else {
		slog.Info("ANTHROPIC_API_KEY not set, using deterministic classification only")
	}

	var source roster.Source = roster.Unconfigured{}
	if cfg.Sheets.Configured() {
		source = roster.NewSheets(roster.SheetsConfig{
			SpreadsheetID: cfg.Sheets.SpreadsheetID,
			SheetName:     cfg.Sheets.SheetName,
			APIKey:        cfg.Sheets.APIKey,
			BaseURL:       cfg.Sheets.BaseURL,
			Timeout:       cfg.Sheets.Timeout,
		})
	}

	sender := greenapi.New(greenapi.Config{
		InstanceID: cfg.GreenAPI.InstanceID,
		APIToken:   cfg.GreenAPI.APIToken,
		BaseURL:    cfg.GreenAPI.BaseURL,
		Timeout:    cfg.GreenAPI.Timeout,
	})

	registry := handlers.New(source, gate, handlers.StatusInfo{
		GreenAPIConfigured:  cfg.GreenAPI.Configured(),
		AnthropicConfigured: cfg.Anthropic.Configured(),
		SheetsConfigured:    cfg.Sheets.Configured(),
	})

	b := bot.New(intent.NewClassifier(provider), registry, sender)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(b, cfg.AdminGroupID).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("webhook server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// expireLoop periodically marks stale pending actions as expired.
func expireLoop(ctx context.Context, gate *pending.Gate) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := gate.CheckExpiry(ctx)
			if err != nil {
				slog.Error("expiring pending actions failed", "err", err)
				continue
			}
			if n > 0 {
				slog.Info("expired pending actions", "count", n)
			}
		}
	}
}

func randomSecret() ([]byte, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return []byte(hex.EncodeToString(buf)), nil
}
