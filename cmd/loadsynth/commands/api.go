package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/loadsynth/internal/api"
	"github.com/wonny/loadsynth/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 저장된 부하 지점 조회
- 요청 시 합성 실행 및 결과 저장
- 실행 결과 HTML 차트 제공

Endpoints:
  GET  /health                           - Health check
  GET  /api/loadpoints                   - 부하 지점 목록
  GET  /api/loadpoints/{id}              - 부하 지점 (?series=true)
  GET  /api/loadpoints/{id}/runs         - 합성 실행 목록
  POST /api/loadpoints/{id}/synthesize   - 합성 실행 (body: 모델 설정 YAML/JSON)
  GET  /api/runs/{id}                    - 실행 요약 (?series=true)
  GET  /api/runs/{id}/chart              - 실행 차트 (HTML)

Example:
  go run ./cmd/loadsynth api
  go run ./cmd/loadsynth api --port 8080 --config model.yaml`,
	RunE: runAPIServer,
}

var (
	apiPort   string
	apiConfig string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
	apiCmd.Flags().StringVar(&apiConfig, "config", "", "기본 모델 설정 YAML")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	base, _, err := loadModelConfig(cfg, apiConfig)
	if err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"port":  cfg.Port,
		"env":   cfg.Env,
		"model": base.Meta.ModelID,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Stores, cache, temperature source, exporter
	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	// 3. Handlers and router
	lpHandler := handlers.NewLoadPointHandler(rt.stores.loadPoints, rt.stores.runs, rt.service, base, rt.limiter, log)
	runHandler := handlers.NewRunHandler(rt.stores.runs, rt.stores.loadPoints, rt.service, log)
	server := api.New(cfg, log, api.NewRouter(lpHandler, runHandler, log))

	// 4. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "\n✅ Server running on http://localhost%s\n", server.Addr())
	fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
