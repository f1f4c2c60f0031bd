// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"io"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

type fsFunc func(string) (fs.File, error)

func (f fsFunc) Open(path string) (fs.File, error) {
	return f(path)
}

func TestFileReader_Read(t *testing.T) {
	t.Run("will read the whole file", func(t *testing.T) {
		fsys := fstest.MapFS{
			"rng.yaml": &fstest.MapFile{Data: []byte("sampler:\n  seed: 7\n")},
		}

		r := NewFileReader(fsys, "rng.yaml")
		b, err := io.ReadAll(r)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "sampler:\n  seed: 7\n", string(b)) {
			return
		}
		if !assert.Nil(t, r.Close()) {
			return
		}
	})

	t.Run("will only open the file once", func(t *testing.T) {
		opened := 0
		fsys := fsFunc(func(name string) (fs.File, error) {
			opened++
			return fstest.MapFS{
				name: &fstest.MapFile{Data: []byte("http:\n  port: 8080\n")},
			}.Open(name)
		})

		r := NewFileReader(fsys, "rng.yaml")
		_, err := io.ReadAll(r)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, 1, opened) {
			return
		}
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the file does not exist", func(t *testing.T) {
			r := NewFileReader(fstest.MapFS{}, "rng.yaml")

			_, err := io.ReadAll(r)
			if !assert.ErrorIs(t, err, fs.ErrNotExist) {
				return
			}
		})

		t.Run("on every read if the file could not be opened", func(t *testing.T) {
			openErr := errors.New("permission denied")
			r := NewFileReader(fsFunc(func(string) (fs.File, error) {
				return nil, openErr
			}), "rng.yaml")

			for i := 0; i < 2; i++ {
				_, err := r.Read(make([]byte, 4))
				if !assert.ErrorIs(t, err, openErr) {
					return
				}
			}
		})
	})
}

func TestFileReader_Close(t *testing.T) {
	t.Run("will not return an error", func(t *testing.T) {
		t.Run("if nothing has been read yet", func(t *testing.T) {
			r := NewFileReader(fstest.MapFS{}, "rng.yaml")

			if !assert.Nil(t, r.Close()) {
				return
			}
		})

		t.Run("if it is closed twice", func(t *testing.T) {
			fsys := fstest.MapFS{
				"rng.json": &fstest.MapFile{Data: []byte(`{}`)},
			}

			r := NewFileReader(fsys, "rng.json")
			_, err := io.ReadAll(r)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Nil(t, r.Close()) {
				return
			}
			if !assert.Nil(t, r.Close()) {
				return
			}
		})
	})
}
