/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package templates wraps the external deployment-template renderer. The
// preflight engine only needs the list of file names a real render would
// produce, so the renderer is driven in dry-run mode and its stdout parsed.
//
// The dry-run output follows a small documented line grammar; each relevant
// line names one rendered file:
//
//	dry run <path>.yaml
//	jinja2 <path>.yaml.j2
//
// A "jinja2" line names the template source, so its ".j2" suffix is
// stripped to obtain the rendered name. All other lines are ignored.
package templates

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/cpstack/preflight/pkg/execute"
)

const (
	dryRunPrefix = "dry run "
	jinjaPrefix  = "jinja2 "

	renderedSuffix = ".yaml"
	templateSuffix = ".j2"

	// processTemplatesScript renders the template tree; shipped with the
	// templates package.
	processTemplatesScript = "tools/process-templates.py"
)

// Renderer reports the file names the template renderer would produce.
type Renderer interface {
	RenderedFiles(ctx context.Context) ([]string, error)
}

// CommandRunner runs the renderer process. *execute.Runner is the
// production implementation.
type CommandRunner interface {
	RunCaptured(ctx context.Context, c execute.Command) (string, error)
}

// DryRunRenderer obtains rendered file names by running the template
// processing script in dry-run mode.
type DryRunRenderer struct {
	// Runner executes the renderer process.
	Runner CommandRunner

	// TemplatesPath is the template tree containing the processing
	// script.
	TemplatesPath string

	// RolesFile is the roles data file passed to the renderer.
	RolesFile string
}

// RenderedFiles runs the renderer in dry-run mode and parses the rendered
// file names from its output.
func (d *DryRunRenderer) RenderedFiles(ctx context.Context) ([]string, error) {
	out, err := d.Runner.RunCaptured(ctx, execute.Command{
		Args: []string{
			"python",
			filepath.Join(d.TemplatesPath, processTemplatesScript),
			"--roles-data", d.RolesFile,
			"--dry-run",
		},
		Name: "process-templates",
	})
	if err != nil {
		return nil, err
	}
	return ParseDryRunOutput(out), nil
}

// ParseDryRunOutput extracts the base names of rendered files from the
// renderer's dry-run output according to the line grammar above.
func ParseDryRunOutput(out string) []string {
	var files []string
	for _, line := range strings.Split(out, "\n") {
		name, ok := parseLine(strings.TrimRight(line, "\r"))
		if ok {
			files = append(files, name)
		}
	}
	return files
}

func parseLine(line string) (string, bool) {
	switch {
	case strings.HasPrefix(line, dryRunPrefix) && strings.HasSuffix(line, renderedSuffix):
		return base(line), true
	case strings.HasPrefix(line, jinjaPrefix) && strings.HasSuffix(line, renderedSuffix+templateSuffix):
		return strings.TrimSuffix(base(line), templateSuffix), true
	}
	return "", false
}

// base returns the base name of the path in the last space-separated field.
func base(line string) string {
	fields := strings.Fields(line)
	return filepath.Base(fields[len(fields)-1])
}
