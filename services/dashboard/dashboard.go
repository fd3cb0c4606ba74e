// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dashboard provides the core dashboard specification service
// for AleutianPulse.
//
// This package contains the main Service type that coordinates all
// components: HTTP routing, the versioned spec store, the path policy,
// the simulate/commit pipeline, the insight engine, the proposal
// backend, and observability infrastructure.
//
// # Usage
//
//	cfg := dashboard.Config{Port: 12310}
//	svc, err := dashboard.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianPulse/services/dashboard/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/middleware"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/observability"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/routes"
	"github.com/AleutianAI/AleutianPulse/services/insight"
	"github.com/AleutianAI/AleutianPulse/services/patch"
	"github.com/AleutianAI/AleutianPulse/services/proposal"
	"github.com/AleutianAI/AleutianPulse/services/simulation"
	"github.com/AleutianAI/AleutianPulse/services/specstore"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the dashboard service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing. Callers must
	// not modify routes after construction.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds dashboard service configuration options.
//
// All fields are optional; New() applies defaults for zero values.
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// StorePath is the Badger directory for the version store.
	// Default: "./data/specstore"
	StorePath string

	// InMemoryStore runs the version store without disk persistence.
	// Intended for development and tests.
	InMemoryStore bool

	// PolicyPath overrides the embedded path policy with a YAML file.
	// When set, the file is watched and hot-reloaded on change.
	PolicyPath string

	// ProposerBackend selects the proposal engine.
	// Valid values: "static", "openai", "none"
	// Default: "static"
	ProposerBackend string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "pulse-otel-collector:4317"
	OTelEndpoint string

	// DisableMetrics turns off the Prometheus /metrics endpoint and the
	// metric counters. Metrics are on by default.
	DisableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	GinMode string

	// RateLimitRPS is the per-client request budget per second.
	// Default: 20. Negative disables rate limiting.
	RateLimitRPS float64

	// RateLimitBurst is the per-client burst allowance. Default: 40
	RateLimitBurst int
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns; the policy's internal lock covers hot reloads.
type service struct {
	config          Config
	router          *gin.Engine
	store           *specstore.Store
	policy          *patch.Policy
	simulator       *simulation.Simulator
	engine          *insight.Engine
	proposer        proposal.Proposer
	tracerCleanup   func(context.Context)
	policyWatchStop context.CancelFunc
}

// New creates a dashboard Service with the given configuration.
//
// # Description
//
// New initializes all components in dependency order:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Opens the version store and seeds version 1 if empty
//  5. Loads the path policy (embedded or file, with hot reload)
//  6. Builds the simulate/commit pipeline and insight engine
//  7. Creates the proposal backend
//  8. Sets up HTTP routes
//
// # Outputs
//
//   - Service: Ready-to-run dashboard service
//   - error: Non-nil if initialization fails
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	if !s.config.DisableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for the dashboard service")
	}

	if err := s.initStore(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize spec store: %w", err)
	}

	if err := s.initPolicy(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize path policy: %w", err)
	}

	s.simulator = simulation.NewSimulator(s.store, s.policy, slog.Default())
	s.engine = insight.NewEngine(slog.Default())

	if err := s.initProposer(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize proposer: %w", err)
	}

	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
// Cleanup is automatic on return.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting dashboard server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.StorePath == "" {
		cfg.StorePath = "./data/specstore"
	}
	if cfg.ProposerBackend == "" {
		cfg.ProposerBackend = "static"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "pulse-otel-collector:4317"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 20
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 40
	}
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing via the OTLP
// gRPC exporter. The connection is lazy, so an unreachable collector does
// not block startup.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("dashboard-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initStore opens the Badger-backed version store and seeds the default
// document when the store is empty.
func (s *service) initStore() error {
	var cfg specstore.Config
	if s.config.InMemoryStore {
		cfg = specstore.InMemoryConfig()
		slog.Info("Using in-memory spec store")
	} else {
		cfg = specstore.DefaultConfig(s.config.StorePath)
		slog.Info("Using persistent spec store", "path", s.config.StorePath)
	}

	store, err := specstore.Open(cfg)
	if err != nil {
		return err
	}
	s.store = store

	return s.store.EnsureSeed(context.Background(), datatypes.DefaultDocument())
}

// initPolicy loads the path policy from the embedded defaults or, when
// PolicyPath is set, from the file with a hot-reload watcher behind it.
func (s *service) initPolicy() error {
	if s.config.PolicyPath == "" {
		policy, err := patch.NewPolicy()
		if err != nil {
			return err
		}
		s.policy = policy
		slog.Info("Loaded embedded path policy")
		return nil
	}

	policy, err := patch.NewPolicyFromFile(s.config.PolicyPath)
	if err != nil {
		return err
	}
	s.policy = policy

	ctx, cancel := context.WithCancel(context.Background())
	s.policyWatchStop = cancel
	go func() {
		if err := patch.WatchPolicyFile(ctx, policy, s.config.PolicyPath); err != nil {
			slog.Warn("policy file watcher stopped", "error", err)
		}
	}()
	slog.Info("Loaded path policy from file with hot reload", "path", s.config.PolicyPath)
	return nil
}

// initProposer creates the proposal backend.
func (s *service) initProposer() error {
	var err error

	switch s.config.ProposerBackend {
	case "static":
		s.proposer = proposal.StaticProposer{}
		slog.Info("Using static heuristic proposer")
	case "openai":
		s.proposer, err = proposal.NewOpenAIProposer(slog.Default())
		slog.Info("Using OpenAI proposal backend")
	case "none":
		slog.Info("Proposal endpoint disabled")
	default:
		slog.Warn("Unknown proposer backend, defaulting to static", "backend", s.config.ProposerBackend)
		s.proposer = proposal.StaticProposer{}
	}

	return err
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("dashboard-service"))

	var limiter *middleware.RateLimiter
	if s.config.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)
	}

	routes.SetupRoutes(s.router, routes.Deps{
		Store:           s.store,
		Simulator:       s.simulator,
		Engine:          s.engine,
		ValidatorConfig: insight.DefaultValidatorConfig(),
		Proposer:        s.proposer,
		ProposerBackend: s.config.ProposerBackend,
		RateLimiter:     limiter,
		EnableMetrics:   !s.config.DisableMetrics,
	})
}

// cleanup releases all resources held by the service. Called when Run()
// exits or on initialization failure.
func (s *service) cleanup() {
	if s.policyWatchStop != nil {
		s.policyWatchStop()
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("spec store close error", "error", err)
		}
	}

	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
