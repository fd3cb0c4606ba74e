// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command dashboard starts the AleutianPulse dashboard HTTP server.
//
// This is the main entry point for the containerized dashboard service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - DASHBOARD_PORT: HTTP server port (default: 12310)
//   - SPEC_STORE_PATH: Badger directory for the version store (default: ./data/specstore)
//   - SPEC_STORE_IN_MEMORY: "true" runs the store without persistence
//   - PATH_POLICY_FILE: YAML policy override, hot-reloaded on change (optional)
//   - PROPOSER_BACKEND: proposal engine - static, openai, none (default: static)
//   - DASHBOARD_DISABLE_METRICS: "true" turns off the /metrics endpoint
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: pulse-otel-collector:4317)
//   - GIN_MODE: debug, release, test
//
// # Usage
//
//	# Build
//	go build -o dashboard ./cmd/dashboard
//
//	# Run
//	./dashboard
//
//	# Or via container
//	podman-compose up dashboard
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/AleutianAI/AleutianPulse/services/dashboard"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := dashboard.Config{
		Port:            getEnvInt("DASHBOARD_PORT", 12310),
		StorePath:       getEnvString("SPEC_STORE_PATH", "./data/specstore"),
		InMemoryStore:   os.Getenv("SPEC_STORE_IN_MEMORY") == "true",
		PolicyPath:      os.Getenv("PATH_POLICY_FILE"),
		ProposerBackend: getEnvString("PROPOSER_BACKEND", "static"),
		DisableMetrics:  os.Getenv("DASHBOARD_DISABLE_METRICS") == "true",
		OTelEndpoint:    getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "pulse-otel-collector:4317"),
		GinMode:         os.Getenv("GIN_MODE"),
	}

	slog.Info("Starting dashboard service",
		"port", cfg.Port,
		"store_path", cfg.StorePath,
		"proposer_backend", cfg.ProposerBackend,
	)

	svc, err := dashboard.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create dashboard service: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Dashboard service error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
