// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package platform

import "regexp"

// rootPatterns are the root= value syntaxes the kernel can mount
// without an initramfs, per init/do_mounts.c in the Linux tree.
var rootPatterns = func() []*regexp.Regexp {
	const (
		x     = "[0-9a-fA-F]"
		guid  = x + "{8}-" + x + "{4}-" + x + "{4}-" + x + "{4}-" + x + "{12}"
		ntsig = x + "{8}-" + x + "{2}"
	)

	patterns := []string{
		x + "{4}",
		"/dev/nfs",
		"/dev/[0-9a-zA-Z]+",
		"/dev/[0-9a-zA-Z]+[0-9]+",
		"/dev/[0-9a-zA-Z]+p[0-9]+",
		"PARTUUID=(" + guid + "|" + ntsig + ")",
		"PARTUUID=(" + guid + "|" + ntsig + ")/PARTNROFF=[0-9]+",
		"[0-9]+:[0-9]+",
		"PARTLABEL=.+",
		"/dev/cifs",
	}

	result := make([]*regexp.Regexp, 0, len(patterns))

	for _, pattern := range patterns {
		result = append(result, regexp.MustCompile(`\A(?:`+pattern+`)\z`))
	}

	return result
}()

// RootRequiresInitramfs reports whether a root= cmdline value needs an
// initramfs to be mounted, i.e. whether it falls outside the syntaxes
// the kernel resolves on its own.
func RootRequiresInitramfs(root string) bool {
	for _, pattern := range rootPatterns {
		if pattern.MatchString(root) {
			return false
		}
	}

	return true
}
