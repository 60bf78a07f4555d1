// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package platform probes the running system for the hardware and
// firmware signals board resolution is driven by: the ChromeOS hardware
// ID, device-tree compatible strings, the CPU architecture, and whether
// the machine was booted by ChromeOS-style firmware.
package platform

import (
	"os"
	"strings"

	"github.com/siderolabs/go-procfs/procfs"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Probes reads hardware identification out of procfs and sysfs. The
// zero value probes the live system.
type Probes struct {
	root    string
	machine string
	logger  *zap.Logger
}

// Option configures Probes.
type Option func(*Probes)

// WithRoot prefixes all probed paths, for tests.
func WithRoot(root string) Option {
	return func(p *Probes) {
		p.root = root
	}
}

// WithMachine overrides the uname machine field, for tests.
func WithMachine(machine string) Option {
	return func(p *Probes) {
		p.machine = machine
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Probes) {
		p.logger = logger
	}
}

// New builds system probes.
func New(opts ...Option) *Probes {
	p := &Probes{
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// readTrimmed reads a procfs/sysfs value, dropping the NUL and newline
// padding firmware files carry.
func (p *Probes) readTrimmed(path string) string {
	data, err := os.ReadFile(p.root + path)
	if err != nil {
		return ""
	}

	return strings.Trim(string(data), "\x00\n ")
}

// HWID returns the ChromeOS hardware ID, empty when unavailable. On
// device-tree systems the firmware publishes it through the device
// tree; x86 firmware exposes it in the VPD.
func (p *Probes) HWID() string {
	if hwid := p.readTrimmed("/proc/device-tree/firmware/chromeos/hardware-id"); hwid != "" {
		return hwid
	}

	return p.readTrimmed("/sys/firmware/vpd/ro/hwid")
}

// DTCompatibles returns the device-tree compatible strings for the
// running hardware, most specific first, or nil on non-device-tree
// systems.
func (p *Probes) DTCompatibles() []string {
	data, err := os.ReadFile(p.root + "/proc/device-tree/compatible")
	if err != nil {
		return nil
	}

	var result []string

	for _, value := range strings.Split(string(data), "\x00") {
		if value != "" {
			result = append(result, value)
		}
	}

	return result
}

// DTModel returns the device-tree model string, empty when unavailable.
func (p *Probes) DTModel() string {
	return p.readTrimmed("/proc/device-tree/model")
}

// Machine returns the CPU architecture as reported by uname.
func (p *Probes) Machine() string {
	if p.machine != "" {
		return p.machine
	}

	var utsname unix.Utsname

	if err := unix.Uname(&utsname); err != nil {
		p.logger.Warn("uname failed", zap.Error(err))

		return ""
	}

	return unix.ByteSliceToString(utsname.Machine[:])
}

// IsCrOSBoot reports whether ChromeOS-style verified-boot firmware
// started this kernel. The firmware injects cros_secure into the
// cmdline; cros_efi and cros_legacy mean some other bootloader took
// over after the firmware.
func (p *Probes) IsCrOSBoot() bool {
	data, err := os.ReadFile(p.root + "/proc/cmdline")
	if err != nil {
		return false
	}

	cmdline := procfs.NewCmdline(strings.TrimRight(string(data), "\n"))

	return cmdline.Get("cros_secure").First() != nil
}

// OSRelease parses /etc/os-release into a key-value map.
func (p *Probes) OSRelease() map[string]string {
	result := map[string]string{}

	data, err := os.ReadFile(p.root + "/etc/os-release")
	if err != nil {
		return result
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		result[key] = strings.Trim(value, `'"`)
	}

	return result
}

// OSName returns the NAME field of os-release, empty when unknown.
func (p *Probes) OSName() string {
	return p.OSRelease()["NAME"]
}
