package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/docblade/docblade"
	"github.com/docblade/docblade/answer"
	"github.com/docblade/docblade/extract"
	"github.com/docblade/docblade/persistence/boltdb"
	"github.com/docblade/docblade/persistence/chromem"

	mcpE "github.com/docblade/docblade/mcp"
	httpT "github.com/docblade/docblade/transport/http"
	natsT "github.com/docblade/docblade/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "docblade",
		Usage: "Document ingestion and retrieval service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the docblade data directory",
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL (empty disables the NATS transport)",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.BoolFlag{
				Name:  "http",
				Usage: "Enable HTTP transport",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP server address",
				Value: ":8080",
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	godotenv.Load()

	path := cmd.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = filepath.Join(homeDir, ".docblade")
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	var cfg docblade.Config

	f, err := os.Open(filepath.Join(path, "config.yaml"))
	switch {
	case err == nil:
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return err
		}

	case errors.Is(err, fs.ErrNotExist):
		// defaults only

	default:
		return err
	}

	cfg.ApplyDefaults()
	cfg.Vector.Persistent = true
	cfg.Vector.Path = filepath.Join(path, "vectors")
	if cfg.UploadDir == "" {
		cfg.UploadDir = filepath.Join(path, "uploads")
	}

	vdb, err := chromem.NewChromemVectorDB(cfg.Vector)
	if err != nil {
		return err
	}

	registry, err := boltdb.NewRegistry(filepath.Join(path, "categories.db"))
	if err != nil {
		return err
	}

	var generator answer.Generator
	if g, err := answer.NewOpenAIGenerator(os.Getenv("OPENAI_API_KEY"), cfg.Answer); err != nil {
		log.Warn("running without answer generation", zap.Error(err))
	} else {
		generator = g
	}

	svc, err := docblade.NewService(cfg, docblade.Dependencies{
		Vector:     vdb,
		Extractor:  extract.NewExtractor(),
		Generator:  generator,
		Categories: registry,
	})
	if err != nil {
		return err
	}
	defer svc.Close()

	svc = docblade.LoggingMiddleware(log)(svc)

	endpoints := docblade.EndpointSet{
		Ingest:          docblade.IngestEndpoint(svc),
		Query:           docblade.QueryEndpoint(svc),
		ClearCollection: docblade.ClearCollectionEndpoint(svc),
		ListFiles:       docblade.ListFilesEndpoint(svc),
		CreateCategory:  docblade.CreateCategoryEndpoint(svc),
		ListCategories:  docblade.ListCategoriesEndpoint(svc),
	}

	natsURL := cmd.String("nats")
	if natsURL != "" {
		natsCreds := filepath.Join(path, "user.creds")

		idBytes, err := os.ReadFile(filepath.Join(path, "id"))
		if err != nil {
			return err
		}

		edgeID := strings.TrimSpace(string(idBytes))

		opts := []nats.Option{
			nats.Name("DocBlade Server - " + edgeID),
		}

		if _, err := os.Stat(natsCreds); err == nil {
			opts = append(opts, nats.UserCredentials(natsCreds))
		}

		nc, err := nats.Connect(natsURL, opts...)
		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "docblade",
			Version: "1.0.0",
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		topic := "edges." + edgeID + ".docblade"

		root := srv.AddGroup(topic)
		natsT.AddEndpoints(root, endpoints)
	}

	httpEnabled := cmd.Bool("http")
	if httpEnabled {
		r := gin.Default()
		httpT.AddRouters(r, endpoints, cfg.UploadDir)

		mcpEndpoints := make(map[mcp.MCPMethod]mcpE.MCPEndpoint)
		mcpEndpoints[mcp.MethodInitialize] = mcpE.InitializeEndpoint(svc)
		mcpEndpoints[mcp.MethodPing] = mcpE.PingEndpoint(svc)
		mcpEndpoints[mcp.MethodToolsList] = mcpE.ListToolsEndpoint(svc)
		mcpEndpoints[mcp.MethodToolsCall] = mcpE.CallToolEndpoint(svc)
		httpT.AddStreamableRouters(r, mcpEndpoints)

		httpAddr := cmd.String("http-addr")
		go r.Run(httpAddr)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("graceful shutdown", zap.String("signal", sign.String()))
	return nil
}
