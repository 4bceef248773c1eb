// Package main is the ai-svc CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bizflow/ai-svc/internal/catalog"
	"github.com/bizflow/ai-svc/internal/config"
	"github.com/bizflow/ai-svc/internal/embedding"
	"github.com/bizflow/ai-svc/internal/llm"
	"github.com/bizflow/ai-svc/internal/models"
	"github.com/bizflow/ai-svc/internal/orders"
	"github.com/bizflow/ai-svc/internal/server"
	"github.com/bizflow/ai-svc/internal/watcher"
	"github.com/bizflow/ai-svc/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ai-svc/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development). A missing file
// at the default path is not an error: the service runs on built-in defaults
// plus the GOOGLE_API_KEY environment variable.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), "(defaults)", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "sync":
		runSync()
	case "parse":
		runParse()
	case "version", "--version", "-v":
		fmt.Printf("ai-svc version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx := context.Background()
	embedder := buildEmbedder(ctx, cfg, logger)
	defer embedder.Close()

	index, err := catalog.NewIndex(cfg.Storage.IndexPath, embedder, logger)
	if err != nil {
		logger.Fatal("Failed to open product index", zap.Error(err))
	}

	client, err := llm.NewClient(ctx, llm.Config{
		APIKey:      cfg.AI.APIKey,
		Models:      cfg.AI.GenerationModels,
		MaxAttempts: cfg.AI.MaxAttempts,
		BackoffBase: time.Duration(cfg.AI.BackoffBaseSeconds) * time.Second,
		BackoffCap:  time.Duration(cfg.AI.BackoffCapSeconds) * time.Second,
		Timeout:     time.Duration(cfg.AI.RequestTimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create model client", zap.Error(err))
	}
	defer client.Close()

	searchLimit := cfg.Search.DefaultLimit
	if cfg.Search.MaxLimit > 0 && searchLimit > cfg.Search.MaxLimit {
		searchLimit = cfg.Search.MaxLimit
	}
	pipeline := orders.NewPipeline(index, client, searchLimit, cfg.Search.MaxContextProducts, logger)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var seedWatcher *watcher.Watcher
	if cfg.Seed.Directory != "" {
		seedWatcher = watcher.NewWatcher(cfg.Seed.Directory, index, logger)
		if err := seedWatcher.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start seed watcher", zap.Error(err))
		}
		if err := seedWatcher.SyncExistingFiles(watchCtx); err != nil {
			logger.Warn("seed sync of existing files failed", zap.Error(err))
		}
	}

	srv := server.NewServer(index, pipeline, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if seedWatcher != nil {
		seedWatcher.Stop()
	}
	watchCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// buildEmbedder wires the primary and fallback embedding models. Without
// an API key the catalog still opens; retrieval just returns no matches.
func buildEmbedder(ctx context.Context, cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	if cfg.AI.APIKey == "" {
		logger.Warn("GOOGLE_API_KEY not set; product retrieval is disabled")
		return embedding.Unavailable{}
	}
	primary, err := embedding.NewGeminiEmbedder(ctx, cfg.AI.APIKey, cfg.AI.EmbeddingModel)
	if err != nil {
		logger.Warn("primary embedding model unavailable", zap.Error(err))
		return embedding.Unavailable{}
	}
	secondary, err := embedding.NewGeminiEmbedder(ctx, cfg.AI.APIKey, cfg.AI.FallbackEmbeddingModel)
	if err != nil {
		logger.Warn("fallback embedding model unavailable, using primary only", zap.Error(err))
		return primary
	}
	return embedding.NewFallbackEmbedder(primary, secondary, logger)
}

func runSync() {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	file := fs.String("file", "", "catalog seed file (JSON with owner_id and products)")
	serverURL := fs.String("server", "http://localhost:8000", "server URL")
	_ = fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Println("sync: -file is required")
		fs.PrintDefaults()
		os.Exit(1)
	}
	req, err := catalog.LoadSeedFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load seed file: %v\n", err)
		os.Exit(1)
	}
	resp, err := syncViaHTTP(*serverURL, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Synced %d products for owner %s\n", resp.Count, req.OwnerID)
}

func syncViaHTTP(serverURL string, req *models.SyncRequest) (*models.SyncResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/products/sync", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// buildMessage joins all positional args with spaces so multi-word
// messages work with or without shell quoting.
func buildMessage(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runParse() {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	owner := fs.String("owner", "", "owner (tenant) id")
	serverURL := fs.String("server", "http://localhost:8000", "server URL")
	_ = fs.Parse(os.Args[2:])

	message := buildMessage(fs.Args())
	if *owner == "" || message == "" {
		fmt.Println("Usage: ai-svc parse -owner <id> <message>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	order, err := parseViaHTTP(*serverURL, *owner, message)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	out, err := json.MarshalIndent(order, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func parseViaHTTP(serverURL, ownerID, message string) (*models.DraftOrder, error) {
	body, err := json.Marshal(models.ParseOrderRequest{OwnerID: ownerID, Message: message})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/parse-order", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var order models.DraftOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &order, nil
}

func printUsage() {
	fmt.Println(`ai-svc - order extraction service with product retrieval

Usage:
  ai-svc server [flags]                Start the HTTP server
  ai-svc sync -file <seed.json>        Sync a product catalog file to a running server
  ai-svc parse -owner <id> <message>   Parse a sales message into a draft order
  ai-svc version                       Show version
  ai-svc help                          Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/ai-svc/config.yaml)
  --debug            Enable debug logging

Sync Flags:
  --file string      Catalog seed file (JSON with owner_id and products)
  --server string    Server URL (default: http://localhost:8000)

Parse Flags:
  --owner string     Owner (tenant) id
  --server string    Server URL (default: http://localhost:8000)

Examples:
  ai-svc server
  ai-svc sync -file seeds/owner-1.json
  ai-svc parse -owner owner-1 "chị Lan lấy 2 lon coca, ghi nợ"`)
}
