// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
This file bridges the build system and the runtime policy logic. It uses the
Go embed package to bake path_policy.yaml directly into the compiled binary,
so the default patch guardrails travel with the executable and cannot be
edited on the host filesystem without recompiling.
*/

package enforcement

import (
	_ "embed"
)

// PathPolicyDefaults holds the raw byte content of 'path_policy.yaml'.
//
// Populated at compile time via the Go 'embed' directive. An operator can
// still override the policy with an external file (see patch.NewPolicyFromFile),
// but the embedded copy is always available as the known-good baseline.
//
// Usage:
//
//	err := yaml.Unmarshal(enforcement.PathPolicyDefaults, &targetStruct)
//
//go:embed path_policy.yaml
var PathPolicyDefaults []byte
