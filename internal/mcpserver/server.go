package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/mark3labs/mcp-go/server"

	"github.com/apresai/scriptvoice/internal/config"
	"github.com/apresai/scriptvoice/internal/storage"
	"github.com/apresai/scriptvoice/internal/tts"
)

// Config holds server configuration.
type Config struct {
	Port         int
	S3Bucket     string
	CDNBaseURL   string
	AWSRegion    string
	SecretPrefix string // e.g. "/scriptvoice/"
	Timeout      time.Duration
	Version      string
}

// DefaultConfig returns a Config populated from environment variables.
func DefaultConfig() Config {
	cfg := Config{
		Port:         8000,
		S3Bucket:     envOr("S3_BUCKET", ""),
		CDNBaseURL:   envOr("CDN_BASE_URL", ""),
		AWSRegion:    envOr("AWS_REGION", "us-east-1"),
		SecretPrefix: envOr("SECRET_PREFIX", ""),
		Timeout:      60 * time.Second,
		Version:      "dev",
	}
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
		cfg.Port = p
	}
	return cfg
}

// Server is the MCP server exposing script synthesis as tools.
type Server struct {
	cfg      Config
	mcp      *server.MCPServer
	handlers *Handlers
	log      *slog.Logger
}

// New loads credentials and AWS clients and registers the tools.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET environment variable is required")
	}

	awsCfg, err := config.LoadAWS(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}

	creds, err := config.Load(ctx, config.Options{
		SecretPrefix: cfg.SecretPrefix,
		Secrets:      secretsmanager.NewFromConfig(awsCfg),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("load speech credentials: %w", err)
	}

	synth, err := tts.NewAzureClient(tts.AzureConfig{
		Key:       creds.Key,
		Region:    creds.Region,
		UserAgent: "scriptvoice-mcp/" + cfg.Version,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	store := storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.CDNBaseURL)
	handlers := NewHandlers(synth, store, logger)

	return &Server{
		cfg:      cfg,
		mcp:      NewMCPServer(handlers, cfg.Version),
		handlers: handlers,
		log:      logger,
	}, nil
}

// NewMCPServer registers every tool on a fresh MCP server.
func NewMCPServer(h *Handlers, version string) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"scriptvoice",
		version,
		server.WithToolCapabilities(true),
	)

	tools := ToolDefs()
	mcpServer.AddTool(tools[0], h.HandleSynthesizeScript)
	mcpServer.AddTool(tools[1], h.HandleParseScript)
	mcpServer.AddTool(tools[2], h.HandleListVoices)
	return mcpServer
}

// Start runs the HTTP MCP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info("Starting MCP server", "addr", addr)

	httpServer := server.NewStreamableHTTPServer(s.mcp,
		server.WithStateLess(true),
	)
	return httpServer.Start(addr)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
