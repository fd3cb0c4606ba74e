// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPulse/pkg/logging"
)

// auditLogger records every CLI invocation to a local file when --log-dir
// is set. It stays nil otherwise.
var auditLogger *logging.Logger

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
	if auditLogger != nil {
		auditLogger.Close()
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if apiURL == "" {
			apiURL = os.Getenv("PULSE_API_URL")
		}
		if apiURL == "" {
			apiURL = "http://localhost:12310"
		}
		if logDir != "" {
			auditLogger = logging.New(logging.Config{
				Service: "pulse-cli",
				LogDir:  logDir,
				Quiet:   true,
			})
			auditLogger.Info("command invoked", "command", cmd.Name(), "args", args)
		}
	}
}
