// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blockdev

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Graph is the block device dependency graph assembled from sysfs. An
// edge runs from a device to the devices it is built on: a partition
// depends on its disk, a dm-crypt or LVM volume on its slaves, a RAID
// member disk is a parent of the array.
type Graph struct {
	mu sync.Mutex

	sysRoot string
	devRoot string
	logger  *zap.Logger

	built    bool
	devices  map[string]struct{}
	parents  map[string]map[string]struct{}
	physical map[string]struct{}
	aliases  map[string]string
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithSysRoot overrides the sysfs mount point, for tests.
func WithSysRoot(root string) GraphOption {
	return func(g *Graph) {
		g.sysRoot = root
	}
}

// WithDevRoot overrides the device node directory, for tests.
func WithDevRoot(root string) GraphOption {
	return func(g *Graph) {
		g.devRoot = root
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) GraphOption {
	return func(g *Graph) {
		g.logger = logger
	}
}

// NewGraph builds an empty graph; call Build to populate it.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		sysRoot:  "/sys",
		devRoot:  "/dev",
		logger:   zap.NewNop(),
		devices:  map[string]struct{}{},
		parents:  map[string]map[string]struct{}{},
		physical: map[string]struct{}{},
		aliases:  map[string]string{},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Build scans /sys/class/block and populates the graph. A populated
// graph is not rescanned unless force is set.
func (g *Graph) Build(force bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.built && !force {
		return nil
	}

	g.devices = map[string]struct{}{}
	g.parents = map[string]map[string]struct{}{}
	g.physical = map[string]struct{}{}
	g.aliases = map[string]string{}

	classDir := filepath.Join(g.sysRoot, "class", "block")

	entries, err := os.ReadDir(classDir)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", classDir, err)
	}

	for _, entry := range entries {
		g.devices[entry.Name()] = struct{}{}
	}

	for _, entry := range entries {
		if err := g.scanDevice(classDir, entry.Name()); err != nil {
			return err
		}
	}

	g.built = true

	g.logger.Debug("scanned block devices",
		zap.Int("devices", len(g.devices)),
		zap.Int("physical", len(g.physical)),
	)

	return nil
}

//nolint:gocyclo
func (g *Graph) scanDevice(classDir, name string) error {
	resolved, err := filepath.EvalSymlinks(filepath.Join(classDir, name))
	if err != nil {
		// devices can disappear mid-scan
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to resolve symlink %s: %w", name, err)
	}

	parentDir := filepath.Dir(resolved)
	parentName := filepath.Base(parentDir)

	switch {
	case parentName == "block":
		// a whole disk sits directly in a block/ directory; devices
		// synthesized by the kernel live under devices/virtual
		if filepath.Base(filepath.Dir(parentDir)) != "virtual" {
			g.physical[name] = struct{}{}
		}
	default:
		// a partition's sysfs directory nests inside its disk's
		g.addEdge(name, parentName)
	}

	slaves, err := os.ReadDir(filepath.Join(resolved, "slaves"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read slaves of %s: %w", name, err)
	}

	for _, slave := range slaves {
		g.addEdge(name, slave.Name())
	}

	holders, err := os.ReadDir(filepath.Join(resolved, "holders"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read holders of %s: %w", name, err)
	}

	for _, holder := range holders {
		g.addEdge(holder.Name(), name)
	}

	dmName, err := os.ReadFile(filepath.Join(resolved, "dm", "name"))
	if err == nil {
		if alias := strings.TrimSpace(string(dmName)); alias != "" {
			g.aliases[alias] = name
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read dm name of %s: %w", name, err)
	}

	return nil
}

// addEdge records child depending on parent when both endpoints were
// seen in the class/block scan.
func (g *Graph) addEdge(child, parent string) {
	if _, ok := g.devices[child]; !ok {
		return
	}

	if _, ok := g.devices[parent]; !ok {
		return
	}

	if g.parents[child] == nil {
		g.parents[child] = map[string]struct{}{}
	}

	g.parents[child][parent] = struct{}{}
}

// CanonicalName reduces a device path to its graph node name, resolving
// /dev/disk/by-* symlinks and /dev/mapper aliases.
func (g *Graph) CanonicalName(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("error resolving %s: %w", path, err)
	}

	name := filepath.Base(resolved)

	g.mu.Lock()
	defer g.mu.Unlock()

	if filepath.Base(filepath.Dir(resolved)) == "mapper" {
		if dev, ok := g.aliases[name]; ok {
			name = dev
		}
	}

	if _, ok := g.devices[name]; !ok {
		return "", &UnknownDeviceError{Name: name}
	}

	return name, nil
}

// Parents returns the direct parents of a device, unordered.
func (g *Graph) Parents(name string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	result := make([]string, 0, len(g.parents[name]))

	for parent := range g.parents[name] {
		result = append(result, parent)
	}

	return result
}

// Physical reports whether a device is a physical whole disk.
func (g *Graph) Physical(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.physical[name]

	return ok
}

// PhysicalNames returns all physical whole disk names, sorted.
func (g *Graph) PhysicalNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	result := make([]string, 0, len(g.physical))

	for name := range g.physical {
		result = append(result, name)
	}

	sort.Strings(result)

	return result
}

// DevPath returns the device node path for a graph node name.
func (g *Graph) DevPath(name string) string {
	return filepath.Join(g.devRoot, name)
}
