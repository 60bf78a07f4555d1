// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package kernel

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/siderolabs/gen/maps"
)

// NotFoundError is returned by Set.Select for a version with no
// installed kernel.
type NotFoundError struct {
	Version string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no kernel installed for version %q", e.Version)
}

// Set is the collection of kernels installed under a root directory.
type Set struct {
	root    string
	kernels map[string]Kernel
}

// kernelPrefixes are the versioned kernel image name prefixes, and
// bareKernels the unversioned image names, recognized under boot.
var (
	kernelPrefixes = []string{"vmlinuz-", "vmlinux-"}
	bareKernels    = []string{"vmlinuz", "vmlinux", "Image", "zImage", "bzImage"}

	initrdPrefixes = []string{"initrd.img-", "initrd-"}
	bareInitrds    = []string{"initrd.img", "initrd"}
)

// NewSet scans root for installed kernels and their initramfs and
// device-tree companions.
func NewSet(root string) (*Set, error) {
	if root == "" {
		root = "/"
	}

	set := &Set{
		root:    root,
		kernels: map[string]Kernel{},
	}

	if err := set.scan(); err != nil {
		return nil, err
	}

	return set, nil
}

func (s *Set) scan() error {
	bootDir := filepath.Join(s.root, "boot")

	entries, err := os.ReadDir(bootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("error scanning %s: %w", bootDir, err)
	}

	initrds := map[string]string{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		path := filepath.Join(bootDir, name)

		if release, ok := matchPrefixed(name, kernelPrefixes); ok {
			s.kernels[release] = Kernel{Release: release, Kernel: path}

			continue
		}

		for _, bare := range bareKernels {
			if name == bare {
				if _, taken := s.kernels[""]; !taken {
					s.kernels[""] = Kernel{Kernel: path}
				}

				break
			}
		}

		if release, ok := matchPrefixed(name, initrdPrefixes); ok {
			initrds[release] = path

			continue
		}

		for _, bare := range bareInitrds {
			if name == bare {
				if _, taken := initrds[""]; !taken {
					initrds[""] = path
				}

				break
			}
		}
	}

	for release, k := range s.kernels {
		if initrd, ok := initrds[release]; ok {
			k.Initrd = initrd
		}

		k.FdtDir = s.findFdtDir(release)

		s.kernels[release] = k
	}

	return nil
}

// matchPrefixed returns the release suffix when name carries one of the
// prefixes.
func matchPrefixed(name string, prefixes []string) (string, bool) {
	for _, prefix := range prefixes {
		if release, ok := strings.CutPrefix(name, prefix); ok && release != "" {
			return release, true
		}
	}

	return "", false
}

// findFdtDir locates the device-tree blob directory for a release,
// preferring the package-installed layout over boot/dtbs.
func (s *Set) findFdtDir(release string) string {
	candidates := []string{}

	if release != "" {
		candidates = append(candidates,
			filepath.Join(s.root, "usr", "lib", "linux-image-"+release),
			filepath.Join(s.root, "boot", "dtbs", release),
		)
	}

	candidates = append(candidates, filepath.Join(s.root, "boot", "dtbs"))

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	return ""
}

// Installed returns all installed kernels, newest release first.
func (s *Set) Installed() []Kernel {
	kernels := maps.Values(s.kernels)

	sort.Slice(kernels, func(i, j int) bool {
		return Compare(kernels[i], kernels[j]) > 0
	})

	return kernels
}

// Select returns the kernel installed for the given version.
func (s *Set) Select(version string) (Kernel, error) {
	k, ok := s.kernels[version]
	if !ok {
		return Kernel{}, &NotFoundError{Version: version}
	}

	return k, nil
}

// Default returns the newest installed kernel.
func (s *Set) Default() (Kernel, error) {
	installed := s.Installed()
	if len(installed) == 0 {
		return Kernel{}, &NotFoundError{}
	}

	return installed[0], nil
}
