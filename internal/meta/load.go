package meta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a supported metadata file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"

	// FormatAuto picks the format from the file extension.
	FormatAuto Format = "auto"
)

// ParseFormat converts a format name to a Format (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "auto", "":
		return FormatAuto, nil
	default:
		return "", fmt.Errorf("unknown metadata format: %q", s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("cannot infer metadata format from %q", path)
	}
}

// File is the on-disk layout of a metadata file.
//
//	fields = ["region", "tier"]
//
//	[global_fields]
//	cluster = "eu-1"
//
//	[metadata.camera1]
//	region = "north"
type File struct {
	Fields       []string                     `json:"fields" toml:"fields" yaml:"fields"`
	Metadata     map[string]map[string]string `json:"metadata" toml:"metadata" yaml:"metadata"`
	GlobalFields map[string]string            `json:"global_fields" toml:"global_fields" yaml:"global_fields"`
}

// Load reads a metadata file and builds a Dictionary from it.
func Load(path string, format Format) (*Dictionary, error) {
	if format == FormatAuto {
		f, err := FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file %s: %w", path, err)
	}

	file, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata file %s: %w", path, err)
	}

	d, err := file.Dictionary()
	if err != nil {
		return nil, fmt.Errorf("invalid metadata file %s: %w", path, err)
	}
	return d, nil
}

// Parse decodes raw file contents in the given format.
func Parse(data []byte, format Format) (*File, error) {
	var file File
	var err error

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&file)
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&file)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to an empty file
		if err = dec.Decode(&file); errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return nil, fmt.Errorf("unsupported metadata format: %q", format)
	}
	if err != nil {
		return nil, err
	}

	return &file, nil
}

// Dictionary validates the file and converts it to a Dictionary. Streams are
// applied in name order so the first reported error is stable.
func (f *File) Dictionary() (*Dictionary, error) {
	d, err := New(f.Fields...)
	if err != nil {
		return nil, err
	}

	streams := make([]string, 0, len(f.Metadata))
	for stream := range f.Metadata {
		streams = append(streams, stream)
	}
	sort.Strings(streams)

	for _, stream := range streams {
		values := f.Metadata[stream]
		fields := make([]string, 0, len(values))
		for field := range values {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			if err := d.Add(stream, field, values[field]); err != nil {
				return nil, err
			}
		}
	}

	for name, value := range f.GlobalFields {
		if err := d.SetGlobal(name, value); err != nil {
			return nil, err
		}
	}

	return d, nil
}
