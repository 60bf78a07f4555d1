// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package platform

import (
	"os"
	"path/filepath"
)

// Keys are the verified-boot keys found in a keys directory. Any of the
// paths may be empty when that key file is missing.
type Keys struct {
	Dir string

	Keyblock    string
	SignPrivate string
	SignPublic  string
}

// systemKeyDirs are where distributions install the vboot devkeys.
var systemKeyDirs = []string{
	"/usr/share/vboot/devkeys",
	"/usr/local/share/vboot/devkeys",
}

// VbootKeys locates verified-boot signing keys, searching the given
// directories before the system devkeys locations. Returns nil when no
// directory holds any key file.
func (p *Probes) VbootKeys(keydirs ...string) *Keys {
	for _, dir := range systemKeyDirs {
		keydirs = append(keydirs, p.root+dir)
	}

	for _, dir := range keydirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}

		keys := &Keys{
			Dir:         dir,
			Keyblock:    filepath.Join(dir, "kernel.keyblock"),
			SignPrivate: filepath.Join(dir, "kernel_data_key.vbprivk"),
			SignPublic:  filepath.Join(dir, "kernel_subkey.vbpubk"),
		}

		if _, err := os.Stat(keys.Keyblock); err != nil {
			keys.Keyblock = ""
		}

		if _, err := os.Stat(keys.SignPrivate); err != nil {
			keys.SignPrivate = ""
		}

		if _, err := os.Stat(keys.SignPublic); err != nil {
			keys.SignPublic = ""
		}

		if keys.Keyblock != "" || keys.SignPrivate != "" || keys.SignPublic != "" {
			return keys
		}
	}

	return nil
}
