// Package manifest handles patchwork.toml configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/patchwork/patch"
)

// FileName is the name of the configuration file
const FileName = "patchwork.toml"

// Manifest represents a patchwork.toml configuration.
type Manifest struct {
	Registry Registry `toml:"registry"`
	Log      Log      `toml:"log"`
	Journal  Journal  `toml:"journal"`

	// Dir is the directory containing the patchwork.toml file (set at load time).
	Dir string `toml:"-"`
}

// Registry configures the patch registry.
type Registry struct {
	Conflict string `toml:"conflict"`
}

// Log configures commonlog output.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// Journal configures the mutation journal.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration used when no patchwork.toml exists.
func Default() *Manifest {
	m := &Manifest{Log: Log{Verbosity: 1}}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Registry.Conflict == "" {
		m.Registry.Conflict = patch.FailFast.String()
	}
	if m.Journal.Path == "" {
		m.Journal.Path = filepath.Join(".patchwork", "journal.db")
	}
}

// Load parses a patchwork.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := &Manifest{Log: Log{Verbosity: 1}}
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a patchwork.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks values the decoder cannot.
func (m *Manifest) Validate() error {
	var errs []error
	if _, err := patch.ParseConflictPolicy(m.Registry.Conflict); err != nil {
		errs = append(errs, fmt.Errorf("registry.conflict: %w", err))
	}
	if m.Log.Verbosity < -1 {
		errs = append(errs, fmt.Errorf("log.verbosity: %d is below -1", m.Log.Verbosity))
	}
	if m.Journal.Enabled && m.Journal.Path == "" {
		errs = append(errs, errors.New("journal.path: required when the journal is enabled"))
	}
	return errors.Join(errs...)
}

// ConflictPolicy returns the parsed registry conflict policy.
func (m *Manifest) ConflictPolicy() patch.ConflictPolicy {
	p, _ := patch.ParseConflictPolicy(m.Registry.Conflict)
	return p
}

// JournalPath returns the journal database path, relative to Dir unless absolute.
func (m *Manifest) JournalPath() string {
	if filepath.IsAbs(m.Journal.Path) || m.Dir == "" {
		return m.Journal.Path
	}
	return filepath.Join(m.Dir, m.Journal.Path)
}

// LogPath returns the log file path, or nil to log to stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.Path == "" {
		return nil
	}
	path := m.Log.Path
	if !filepath.IsAbs(path) && m.Dir != "" {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}
