// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect which board this machine is and print its profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		b, err := app.resolveBoard()
		if err != nil {
			return err
		}

		if b == nil {
			fmt.Println("not running on ChromeOS-style firmware, no board to manage")

			return nil
		}

		maxSize := "unbounded"

		if size, ok := b.ImageMaxSize.Get(); ok {
			maxSize = humanize.IBytes(size)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)

		fmt.Fprintf(w, "NAME\t%s\n", b.Name)
		fmt.Fprintf(w, "CODENAME\t%s\n", b.Codename)
		fmt.Fprintf(w, "ARCH\t%s\n", b.Arch)
		fmt.Fprintf(w, "IMAGE FORMAT\t%s\n", b.ImageFormat)
		fmt.Fprintf(w, "IMAGE MAX SIZE\t%s\n", maxSize)
		fmt.Fprintf(w, "BOOTS LZ4\t%v\n", b.BootsLZ4Kernel)
		fmt.Fprintf(w, "BOOTS LZMA\t%v\n", b.BootsLZMAKernel)

		return w.Flush()
	},
}

func init() {
	addCommand(detectCmd)
}
