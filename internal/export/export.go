// Package export writes a loaded SiteConfig back out, either as canonical
// site.yaml, as JSON, as a Python settings module the external generator
// reads unchanged, or as a plain-text summary.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/SimonPop/lanterns/internal/config"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatPelican Format = "pelican"
	FormatText    Format = "text"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatYAML, FormatJSON, FormatPelican, FormatText}

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, known := range Formats {
		names[i] = string(known)
	}
	return "", fmt.Errorf("unknown format %q (expected one of %s)", s, strings.Join(names, ", "))
}

// DefaultFilename is the file name export writes to when none is given.
func DefaultFilename(f Format) string {
	switch f {
	case FormatYAML:
		return "site.yaml"
	case FormatJSON:
		return "settings.json"
	case FormatPelican:
		return "pelicanconf.py"
	}
	return "settings.txt"
}

// Encode writes cfg to w in format f.
func Encode(w io.Writer, cfg config.SiteConfig, f Format) error {
	switch f {
	case FormatYAML:
		return encodeYAML(w, cfg)
	case FormatJSON:
		return encodeJSON(w, cfg)
	case FormatPelican:
		return encodePelican(w, cfg)
	case FormatText:
		return encodeText(w, cfg)
	}
	return fmt.Errorf("unknown format %q", f)
}

func encodeYAML(w io.Writer, cfg config.SiteConfig) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range cfg.Settings() {
		var value yaml.Node
		if err := value.Encode(normalize(s.Value)); err != nil {
			return fmt.Errorf("encode %s: %w", s.Key, err)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Key}
		doc.Content = append(doc.Content, key, &value)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// JSON writes one object keyed by setting name, in setting order.
func JSON(cfg config.SiteConfig) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	settings := cfg.Settings()
	for i, s := range settings {
		k, _ := json.Marshal(s.Key)
		v, err := json.MarshalIndent(normalize(s.Value), "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", s.Key, err)
		}
		fmt.Fprintf(&buf, "  %s: %s", k, v)
		if i < len(settings)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func encodeJSON(w io.Writer, cfg config.SiteConfig) error {
	data, err := JSON(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// normalize turns values decoded from YAML into ones encoding/json accepts:
// maps with non-string keys get string keys.
func normalize(v any) any {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
