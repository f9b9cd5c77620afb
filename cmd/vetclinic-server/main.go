package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"vetclinic/backend/internal/config"
	"vetclinic/backend/internal/metrics"
	"vetclinic/backend/internal/service/appointments"
	"vetclinic/backend/internal/service/availability"
	"vetclinic/backend/internal/store/postgres"
	grpcTransport "vetclinic/backend/internal/transport/grpc"
)

const serviceName = "vetclinic-server"

func main() {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Veterinary clinic availability and appointment server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	envFile := root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(serveCmd(envFile), migrateCmd(envFile))

	if err := root.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func serveCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC scheduling server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *envFile)
		},
	}
}

func migrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), *envFile)
		},
	}
}

func setup(envFile string) (config.Config, *slog.Logger, error) {
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, log, fmt.Errorf("config load failed: %w", err)
	}

	log = newLogger(parseLogLevel(cfg.LogLevel))
	slog.SetDefault(log)
	return cfg, log, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With(
		slog.String("service", serviceName),
	)
}

func runMigrate(ctx context.Context, envFile string) error {
	cfg, log, err := setup(envFile)
	if err != nil {
		return err
	}

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	applied, err := postgres.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if len(applied) == 0 {
		log.Info("schema up to date")
		return nil
	}
	log.Info("migrations applied", slog.Any("versions", applied))
	return nil
}

func runServe(ctx context.Context, envFile string) error {
	cfg, log, err := setup(envFile)
	if err != nil {
		return err
	}

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("log_level", cfg.LogLevel),
		slog.String("clinic_timezone", cfg.ClinicLocation.String()),
	)

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		return err
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	schedule := postgres.NewScheduleRepo(db)
	repo := postgres.NewAppointmentRepo(db)
	engine := availability.NewEngine(schedule, repo, cfg.ClinicLocation, availability.WithLogger(log))
	svc := appointments.NewService(repo, appointments.NewValidator(schedule, cfg.ClinicLocation), log)

	metrics.Register()
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			defaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout),
			metrics.UnaryServerInterceptor(),
		),
	)
	grpcTransport.RegisterSchedulingServiceServer(grpcServer, grpcTransport.NewSchedulingServer(engine, svc, log))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcTransport.SchedulingServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	go watchDatabase(ctx, log, db, healthServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr()))

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
		log.Info("metrics server started", slog.String("metrics_addr", cfg.MetricsAddr))
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		healthServer.Shutdown()
		shutdownMetrics(log, metricsServer, cfg.ShutdownTimeout)
		shutdown(log, grpcServer, cfg.ShutdownTimeout)
		return nil
	case err := <-errCh:
		shutdownMetrics(log, metricsServer, cfg.ShutdownTimeout)
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("server stopped with error", slog.Any("err", err))
			grpcServer.Stop()
			return err
		}
		return nil
	}
}

// watchDatabase flips the scheduling service health status while the
// database stops answering.
func watchDatabase(ctx context.Context, log *slog.Logger, db *bun.DB, hs *health.Server) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := postgres.Ping(pingCtx, db)
		cancel()

		switch {
		case err != nil && serving:
			log.Warn("database ping failed", slog.Any("err", err))
			hs.SetServingStatus(grpcTransport.SchedulingServiceDesc.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
			serving = false
		case err == nil && !serving:
			log.Info("database reachable again")
			hs.SetServingStatus(grpcTransport.SchedulingServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
			serving = true
		}
	}
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func shutdown(log *slog.Logger, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func shutdownMetrics(log *slog.Logger, s *http.Server, timeout time.Duration) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Warn("metrics server shutdown failed", slog.Any("err", err))
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
