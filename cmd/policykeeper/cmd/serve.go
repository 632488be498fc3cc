package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/policykeeper/internal/casecheck"
	"github.com/solatis/policykeeper/internal/core/api"
	"github.com/solatis/policykeeper/internal/core/server"
	"github.com/solatis/policykeeper/internal/extract"
	"github.com/solatis/policykeeper/internal/generate"
	"github.com/solatis/policykeeper/internal/policy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and gRPC case validation service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("port", 8080, "HTTP port")
	serveCmd.Flags().Int("grpc-port", 50051, "gRPC port (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("grpc-port") {
		port, _ := cmd.Flags().GetInt("grpc-port")
		cfg.Server.GRPCPort = port
	}

	client, err := newLLMClient(cfg.LLM)
	if err != nil {
		return err
	}

	policies, err := openStore(ctx, cfg.Database.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to open policy store: %w", err)
	}
	defer policies.Close()

	service := policy.NewService(policies, generate.New(client, logger), logger)
	checker := casecheck.NewChecker(policies)
	extractor := extract.New(client, client, policies, checker, logger)

	handler := api.NewHandler(api.Options{
		Policies:       service,
		Cases:          checker,
		Extractor:      extractor,
		Logger:         logger,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	httpServer := server.NewHTTPServer(cfg.Server, handler.Routes(cfg.Server.RequestTimeout))

	var grpcServer *server.GRPCServer
	if cfg.Server.GRPCPort != 0 {
		grpcServer, err = server.NewGRPCServer(cfg.Server, api.NewCaseService(checker), logger)
		if err != nil {
			return fmt.Errorf("failed to create gRPC server: %w", err)
		}
	}

	errChan := make(chan error, 2)
	logger.Info("starting policykeeper", "version", Version, "http_addr", httpServer.Addr(), "model", cfg.LLM.Model)
	go func() {
		errChan <- httpServer.Start(ctx)
	}()
	if grpcServer != nil {
		logger.Info("starting gRPC case validation service", "grpc_addr", cfg.Server.GRPCAddr())
		go func() {
			errChan <- grpcServer.Start(ctx)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case runErr = <-errChan:
		logger.Error("server stopped", "error", runErr)
	case sig := <-sigChan:
		logger.Info("shutting down gracefully", "signal", sig.String())
	}

	if err := httpServer.Shutdown(ctx); err != nil && runErr == nil {
		runErr = err
	}
	if grpcServer != nil {
		if err := grpcServer.Shutdown(ctx); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}
