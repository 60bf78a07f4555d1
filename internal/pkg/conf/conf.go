// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package conf loads depthchargectl configuration: a main config file
// plus a config.d drop-in directory, merged over the built-in boards
// database.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/board"
)

// DefaultDir is where the system configuration lives.
const DefaultDir = "/etc/depthcharge-tools"

// Config is the merged tool configuration.
type Config struct {
	// Board pins the board codename, skipping hardware detection.
	Board string `yaml:"board,omitempty"`

	// Root overrides the filesystem root kernels are enumerated under.
	Root string `yaml:"root,omitempty"`

	// VbootKeys is a directory searched for signing keys before the
	// system locations.
	VbootKeys string `yaml:"vboot-keys,omitempty"`

	// Boards overlays sections of the built-in boards database.
	Boards map[string]board.Profile `yaml:"boards,omitempty"`
}

func (c *Config) merge(other *Config) {
	if other.Board != "" {
		c.Board = other.Board
	}

	if other.Root != "" {
		c.Root = other.Root
	}

	if other.VbootKeys != "" {
		c.VbootKeys = other.VbootKeys
	}

	for section, p := range other.Boards {
		if c.Boards == nil {
			c.Boards = map[string]board.Profile{}
		}

		base := c.Boards[section]
		base.Merge(p)
		c.Boards[section] = base
	}
}

// Load reads dir/config.yaml and dir/config.d/*.yaml in lexical order,
// later files overriding earlier ones. Missing files and directories
// are fine; malformed files are reported together.
func Load(dir string, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	paths := []string{filepath.Join(dir, "config.yaml")}

	entries, err := os.ReadDir(filepath.Join(dir, "config.d"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Join(dir, "config.d"), err)
	}

	var dropins []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		dropins = append(dropins, filepath.Join(dir, "config.d", entry.Name()))
	}

	sort.Strings(dropins)

	paths = append(paths, dropins...)

	config := &Config{}

	var errs *multierror.Error

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			errs = multierror.Append(errs, fmt.Errorf("failed to read %s: %w", path, err))

			continue
		}

		var loaded Config

		if err := yaml.Unmarshal(data, &loaded); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to parse %s: %w", path, err))

			continue
		}

		logger.Debug("loaded config file", zap.String("path", path))

		config.merge(&loaded)
	}

	return config, errs.ErrorOrNil()
}

// Catalog builds the boards database with this configuration's board
// overlays applied.
func (c *Config) Catalog() (*board.Catalog, error) {
	return board.DefaultCatalog(c.Boards)
}
