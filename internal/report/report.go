// Package report renders extraction results for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format names an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the accepted values of Format.
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// Entry is one line of a report: the archive that was processed and where it went.
type Entry struct {
	ID        string   `json:"id,omitempty" yaml:"id,omitempty"`
	Source    string   `json:"source" yaml:"source"`
	Archive   string   `json:"archive,omitempty" yaml:"archive,omitempty"`
	Root      string   `json:"root" yaml:"root"`
	Extracted []string `json:"extracted" yaml:"extracted"`
	Files     int      `json:"files" yaml:"files"`
}

// Encoder writes report entries to w.
type Encoder interface {
	Encode(w io.Writer, entries []Entry) error
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format '%s'", s)
}

// NewEncoder returns the encoder for f.
func NewEncoder(f Format) (Encoder, error) {
	switch f {
	case FormatText:
		return &TextEncoder{}, nil
	case FormatJSON:
		return &JSONEncoder{Indent: "  "}, nil
	case FormatYAML:
		return &YAMLEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown output format '%s'", f)
	}
}

// JSONEncoder writes entries as a JSON array.
type JSONEncoder struct {
	// Indent is the indentation string. Empty means compact output.
	Indent string
}

func (e *JSONEncoder) Encode(w io.Writer, entries []Entry) error {
	encoder := json.NewEncoder(w)
	if e.Indent != "" {
		encoder.SetIndent("", e.Indent)
	}

	if entries == nil {
		entries = []Entry{}
	}
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode report as JSON: %w", err)
	}
	return nil
}

// YAMLEncoder writes entries as a YAML sequence.
type YAMLEncoder struct{}

func (e *YAMLEncoder) Encode(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode report as YAML: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// TextEncoder writes a short human readable summary.
type TextEncoder struct{}

func (e *TextEncoder) Encode(w io.Writer, entries []Entry) error {
	var sb strings.Builder
	for _, entry := range entries {
		label := entry.Source
		if entry.ID != "" {
			label = entry.ID + " (" + entry.Source + ")"
		}

		switch len(entry.Extracted) {
		case 0:
			fmt.Fprintf(&sb, "- %s: not an archive, left as is\n", label)
		case 1:
			fmt.Fprintf(&sb, "✓ %s → %s (%d files)\n", label, entry.Root, entry.Files)
		default:
			fmt.Fprintf(&sb, "✓ %s → %s (%d files, %d archives)\n", label, entry.Root, entry.Files, len(entry.Extracted))
		}
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
