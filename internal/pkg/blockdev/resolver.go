// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blockdev

import (
	"fmt"
	"sort"

	"github.com/prometheus/procfs"
	"github.com/siderolabs/gen/xslices"
	"go.uber.org/zap"
)

// PhysicalDiskResolver answers which physical disks a filesystem path or
// device ultimately lives on, walking the device graph through any
// device-mapper, LUKS, LVM or RAID layers in between.
type PhysicalDiskResolver struct {
	graph  *Graph
	logger *zap.Logger

	// mounts is overridable for tests.
	mounts func() ([]*procfs.MountInfo, error)
}

// ResolverOption configures a PhysicalDiskResolver.
type ResolverOption func(*PhysicalDiskResolver)

// WithMountInfo overrides the mount table source, for tests.
func WithMountInfo(mounts func() ([]*procfs.MountInfo, error)) ResolverOption {
	return func(r *PhysicalDiskResolver) {
		r.mounts = mounts
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(logger *zap.Logger) ResolverOption {
	return func(r *PhysicalDiskResolver) {
		r.logger = logger
	}
}

// NewPhysicalDiskResolver builds a resolver over a device graph.
func NewPhysicalDiskResolver(graph *Graph, opts ...ResolverOption) *PhysicalDiskResolver {
	r := &PhysicalDiskResolver{
		graph:  graph,
		logger: zap.NewNop(),
		mounts: procfs.GetMounts,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// PhysicalParents resolves a device path to the physical disks it is
// built on. A physical disk resolves to itself.
func (r *PhysicalDiskResolver) PhysicalParents(path string) ([]*Disk, error) {
	if err := r.graph.Build(false); err != nil {
		return nil, err
	}

	name, err := r.graph.CanonicalName(path)
	if err != nil {
		return nil, err
	}

	visited := map[string]struct{}{}
	found := map[string]struct{}{}
	worklist := []string{name}

	for len(worklist) > 0 {
		n := worklist[0]
		worklist = worklist[1:]

		if _, seen := visited[n]; seen {
			continue
		}

		visited[n] = struct{}{}

		if r.graph.Physical(n) {
			found[n] = struct{}{}

			continue
		}

		worklist = append(worklist, r.graph.Parents(n)...)
	}

	names := make([]string, 0, len(found))

	for n := range found {
		names = append(names, n)
	}

	sort.Strings(names)

	disks := make([]*Disk, 0, len(names))

	for _, n := range names {
		disk, err := NewDisk(r.graph.DevPath(n))
		if err != nil {
			r.logger.Warn("skipping unusable physical disk",
				zap.String("device", n),
				zap.Error(err),
			)

			continue
		}

		disks = append(disks, disk)
	}

	r.logger.Debug("resolved physical parents",
		zap.String("device", name),
		zap.Strings("disks", names),
	)

	return disks, nil
}

// AllPhysicalDisks returns every physical disk on the system, sorted by
// device name.
func (r *PhysicalDiskResolver) AllPhysicalDisks() ([]*Disk, error) {
	if err := r.graph.Build(false); err != nil {
		return nil, err
	}

	var disks []*Disk

	for _, name := range r.graph.PhysicalNames() {
		disk, err := NewDisk(r.graph.DevPath(name))
		if err != nil {
			r.logger.Warn("skipping unusable physical disk",
				zap.String("device", name),
				zap.Error(err),
			)

			continue
		}

		disks = append(disks, disk)
	}

	return disks, nil
}

// BootablePhysicalDisks returns the physical disks backing /boot and /,
// in that order, without duplicates. Disks backing /boot come first as
// they are where the bootloader expects its kernel partitions.
func (r *PhysicalDiskResolver) BootablePhysicalDisks() ([]*Disk, error) {
	mounts, err := r.mounts()
	if err != nil {
		return nil, fmt.Errorf("error reading mount table: %w", err)
	}

	var sources []string

	for _, mountPoint := range []string{"/boot", "/"} {
		for _, mount := range mounts {
			if mount.MountPoint == mountPoint && len(mount.Source) > 0 && mount.Source[0] == '/' {
				sources = append(sources, mount.Source)

				break
			}
		}
	}

	var disks []*Disk

	seen := map[string]struct{}{}

	for _, source := range sources {
		parents, err := r.PhysicalParents(source)
		if err != nil {
			r.logger.Warn("failed to resolve mount source",
				zap.String("source", source),
				zap.Error(err),
			)

			continue
		}

		for _, disk := range parents {
			if _, dup := seen[disk.Path]; dup {
				continue
			}

			seen[disk.Path] = struct{}{}

			disks = append(disks, disk)
		}
	}

	r.logger.Info("bootable physical disks",
		zap.Strings("disks", xslices.Map(disks, (*Disk).String)),
	)

	return disks, nil
}
