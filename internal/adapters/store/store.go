// Package store reads and deletes session descriptor files in the sessions
// directory. It never writes descriptors; workers own that.
package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/rs/zerolog/log"
)

// Default file extensions for descriptors and context side-cars.
const (
	DefaultDescriptorExt = "json"
	DefaultContextExt    = "ctx"
)

// Dir is a sessions directory holding <id>.<descriptorExt> descriptors and
// optional <id>.<contextExt> side-cars.
type Dir struct {
	path          string
	descriptorExt string
	contextExt    string
}

// NewDir creates a Dir. Extensions are given without the leading dot; empty
// values fall back to the defaults.
func NewDir(path, descriptorExt, contextExt string) *Dir {
	if descriptorExt == "" {
		descriptorExt = DefaultDescriptorExt
	}
	if contextExt == "" {
		contextExt = DefaultContextExt
	}
	return &Dir{
		path:          path,
		descriptorExt: "." + strings.TrimPrefix(descriptorExt, "."),
		contextExt:    "." + strings.TrimPrefix(contextExt, "."),
	}
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Ensure creates the directory if it does not exist.
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return domain.NewStoreError("mkdir", d.path, err)
	}
	return nil
}

// List returns the session ids of all descriptor files, sorted.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, domain.NewStoreError("list", d.path, err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := d.IDFromName(entry.Name())
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// IDFromName returns the session id for a descriptor file name.
func (d *Dir) IDFromName(name string) (string, bool) {
	id, ok := strings.CutSuffix(name, d.descriptorExt)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// DescriptorPath returns the descriptor path for id.
func (d *Dir) DescriptorPath(id string) string {
	return filepath.Join(d.path, id+d.descriptorExt)
}

// ContextPath returns the side-car path for id.
func (d *Dir) ContextPath(id string) string {
	return filepath.Join(d.path, id+d.contextExt)
}

// ReadDescriptor returns the raw descriptor for id.
func (d *Dir) ReadDescriptor(id string) ([]byte, error) {
	path := d.DescriptorPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewStoreError("read", path, err)
	}
	return data, nil
}

// ReadContext returns the side-car payload for id, or nil when no side-car
// exists or it cannot be read.
func (d *Dir) ReadContext(id string) []byte {
	data, err := os.ReadFile(d.ContextPath(id))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Debug().Err(err).Str("session_id", id).Msg("context side-car unreadable")
		}
		return nil
	}
	return data
}

// Remove deletes the descriptor and side-car for id. Missing files are not
// an error; the first other failure is returned after both removals have
// been attempted.
func (d *Dir) Remove(id string) error {
	var first error
	for _, path := range []string{d.DescriptorPath(id), d.ContextPath(id)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if first == nil {
				first = domain.NewStoreError("remove", path, err)
			}
		}
	}
	return first
}
