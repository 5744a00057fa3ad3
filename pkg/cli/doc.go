/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the command-line interface for preflightctl.
//
// # Overview
//
// preflightctl gates a control-plane host installation: it verifies system
// resources, kernel facilities, and the network-addressing configuration
// before any irreversible state change occurs. A run is strictly
// sequential and fail-fast; the first failing check ends the run.
//
// # Commands
//
// check - run the full preflight sequence:
//
//	preflightctl check --config /etc/cpstack/install.yaml
//	preflightctl check -c install.yaml --format table
//	preflightctl check -c install.yaml --update       # refresh packages first
//	preflightctl check -c install.yaml --output report.json --format json
//
// version - print version information:
//
//	preflightctl version
//
// # Global Flags
//
//	--debug        Enable debug logging
//	--log-json     Output logs in JSON format
//	--log-journal  Forward logs to the systemd journal when available
//
// # Exit Codes
//
//	0  All checks passed
//	1  Any check failed: missing configuration key, validation failure,
//	   or external command failure (all failure kinds map to 1 so
//	   existing automation keyed on the single failure code keeps working)
//
// The log stream is the primary error surface: failures are logged at
// error level with the underlying cause quoted, one clearly attributable
// message per run.
package cli
