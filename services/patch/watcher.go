// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package patch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// WatchPolicyFile reloads the policy whenever the external policy file
// changes on disk. It blocks until the context is cancelled, so callers
// run it in a goroutine:
//
//	go func() {
//	    if err := patch.WatchPolicyFile(ctx, policy, path); err != nil {
//	        slog.Error("policy watcher stopped", "error", err)
//	    }
//	}()
//
// A file that becomes unreadable or unparseable keeps the previous
// configuration active; the failed reload is logged and the watcher
// keeps running.
func WatchPolicyFile(ctx context.Context, policy *Policy, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch policy file %s: %w", path, err)
	}
	slog.Info("watching policy file for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			reloadPolicyFile(policy, path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("policy watcher error", "error", err)
		}
	}
}

// reloadPolicyFile reads and applies the policy file, keeping the previous
// configuration on any failure.
func reloadPolicyFile(policy *Policy, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("policy reload failed, keeping previous configuration",
			"path", path, "error", err)
		return
	}
	var cfg PolicyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Error("policy reload failed, keeping previous configuration",
			"path", path, "error", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("policy reload failed, keeping previous configuration",
			"path", path, "error", err)
		return
	}
	policy.Reload(cfg)
	slog.Info("policy configuration reloaded", "path", path)
}
