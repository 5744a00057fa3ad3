/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package serializer formats preflight reports for files or stdout in
// JSON, YAML, or a plain-text table.
package serializer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// StdoutURI is the special output path indicating stdout.
const StdoutURI = "-"

// Format is an output format selector.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// IsUnknown reports whether the format is not one of the supported values.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	}
	return true
}

// Tabler renders itself as a plain-text table. Values serialized with
// FormatTable must implement it.
type Tabler interface {
	WriteTable(w io.Writer) error
}

// Writer serializes values to an io.Writer in a fixed format.
type Writer struct {
	format Format
	out    io.Writer
}

// NewWriter creates a Writer emitting the given format to out.
func NewWriter(format Format, out io.Writer) *Writer {
	return &Writer{format: format, out: out}
}

// NewFileWriterOrStdout creates a Writer targeting the given file path, or
// stdout when path is empty or "-". The file is created lazily on the
// first Serialize call.
func NewFileWriterOrStdout(format Format, path string) *Writer {
	if path == "" || path == StdoutURI {
		return NewWriter(format, os.Stdout)
	}
	return &Writer{format: format, out: &lazyFile{path: path}}
}

// Close releases the output file, if the Writer owns one. Writers over
// stdout or a caller-provided stream are unaffected.
func (w *Writer) Close() error {
	if f, ok := w.out.(*lazyFile); ok {
		return f.Close()
	}
	return nil
}

// Serialize writes v in the Writer's format.
func (w *Writer) Serialize(v any) error {
	switch w.format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize to json: %w", err)
		}
		_, err = fmt.Fprintln(w.out, string(data))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to yaml: %w", err)
		}
		return enc.Close()
	case FormatTable:
		tabler, ok := v.(Tabler)
		if !ok {
			return fmt.Errorf("value of type %T cannot be rendered as a table", v)
		}
		return tabler.WriteTable(w.out)
	}
	return fmt.Errorf("unknown output format: %q", w.format)
}

// lazyFile defers file creation until the first write so a failed run does
// not leave an empty report file behind.
type lazyFile struct {
	path string
	file *os.File
}

func (l *lazyFile) Write(p []byte) (int, error) {
	if l.file == nil {
		f, err := os.Create(l.path)
		if err != nil {
			return 0, fmt.Errorf("failed to create output file: %w", err)
		}
		l.file = f
	}
	return l.file.Write(p)
}

// Close syncs and closes the file when one was created; a no-op otherwise.
func (l *lazyFile) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
