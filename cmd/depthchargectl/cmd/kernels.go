// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/kernel"
)

var kernelsCmd = &cobra.Command{
	Use:   "kernels [version]",
	Short: "List the kernels installed on this system, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		set, err := kernel.NewSet(app.root())
		if err != nil {
			return err
		}

		kernels := set.Installed()

		if len(args) > 0 {
			k, err := set.Select(args[0])
			if err != nil {
				return err
			}

			kernels = []kernel.Kernel{k}
		}

		osName := app.probes.OSName()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)

		fmt.Fprintln(w, strings.Join([]string{
			"RELEASE",
			"KERNEL",
			"INITRD",
			"FDTDIR",
			"DESCRIPTION",
		}, "\t"))

		for _, k := range kernels {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				orDash(k.Release),
				k.Kernel,
				orDash(k.Initrd),
				orDash(k.FdtDir),
				k.Description(osName),
			)
		}

		return w.Flush()
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func init() {
	addCommand(kernelsCmd)
}
