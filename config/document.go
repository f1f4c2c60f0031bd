// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/z5labs/rng/internal/try"

	"gopkg.in/yaml.v3"
)

// Yaml represents a Source where its underlying format is YAML.
type Yaml struct {
	r io.Reader
}

// FromYaml returns a source which will apply its config
// from YAML values parsed from the given io.Reader.
func FromYaml(r io.Reader) Yaml {
	return Yaml{r: r}
}

// InvalidYamlError occurs if the underlying io.Reader contains invalid YAML.
type InvalidYamlError struct {
	cause error
}

// Error implements the error interface.
func (e InvalidYamlError) Error() string {
	return fmt.Sprintf("invalid yaml: %s", e.cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidYamlError) Unwrap() error {
	return e.cause
}

// Apply implements the Source interface.
func (src Yaml) Apply(store Store) error {
	return applyDocument(store, src.r, func(b []byte, m *map[string]any) error {
		err := yaml.Unmarshal(b, m)
		if err != nil {
			return InvalidYamlError{cause: err}
		}
		return nil
	})
}

// Json represents a Source where its underlying format is JSON.
type Json struct {
	r io.Reader
}

// FromJson returns a source which will apply its config
// from JSON values parsed from the given io.Reader.
func FromJson(r io.Reader) Json {
	return Json{r: r}
}

// InvalidJsonError occurs if the underlying io.Reader contains invalid JSON.
type InvalidJsonError struct {
	cause error
}

// Error implements the error interface.
func (e InvalidJsonError) Error() string {
	return fmt.Sprintf("invalid json: %s", e.cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidJsonError) Unwrap() error {
	return e.cause
}

// Apply implements the Source interface.
func (src Json) Apply(store Store) error {
	return applyDocument(store, src.r, func(b []byte, m *map[string]any) error {
		err := json.Unmarshal(b, m)
		if err != nil {
			return InvalidJsonError{cause: err}
		}
		return nil
	})
}

func applyDocument(store Store, r io.Reader, unmarshal func([]byte, *map[string]any) error) (err error) {
	defer try.Close(&err, r)

	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m := make(map[string]any)
	err = unmarshal(b, &m)
	if err != nil {
		return err
	}
	return Map(m).Apply(store)
}

// UnsupportedFileError occurs when a config file extension
// matches none of the supported formats.
type UnsupportedFileError struct {
	Path string
}

// Error implements the error interface.
func (e UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported config file format, expected .yaml, .yml or .json: %s", e.Path)
}

// FromFile returns a Source for the file at path in fsys. The format is chosen
// by the file extension and the contents are rendered as a text/template first.
func FromFile(fsys fs.FS, path string, opts ...RenderTextTemplateOption) (Source, error) {
	r := RenderTextTemplate(NewFileReader(fsys, path), opts...)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYaml(r), nil
	case ".json":
		return FromJson(r), nil
	default:
		return nil, UnsupportedFileError{Path: path}
	}
}
