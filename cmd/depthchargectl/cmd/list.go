// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/blockdev"
	"github.com/chrultrabook/depthcharge-tools/internal/pkg/cgpt"
)

var listCmdFlags struct {
	allDisks bool
}

var listCmd = &cobra.Command{
	Use:   "list [disk...]",
	Short: "List ChromeOS kernel partitions and their boot attributes",
	Long: `List the ChromeOS kernel partitions the firmware chooses from, on the
given disks or on the disks this machine boots from.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		disks, err := targetDisks(app, args)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)

		fmt.Fprintln(w, strings.Join([]string{
			"PARTITION",
			"LABEL",
			"SIZE",
			"PRIO",
			"TRIES",
			"SUCCESSFUL",
		}, "\t"))

		for _, disk := range disks {
			kernels, err := cgpt.KernelPartitions(disk)
			if err != nil {
				app.logger.Warn("skipping disk",
					zap.String("disk", disk.Path),
					zap.Error(err),
				)

				continue
			}

			for _, k := range kernels {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\n",
					k.Partition.Path(),
					k.Label,
					humanize.IBytes(k.Size),
					k.Attributes.Priority,
					k.Attributes.Tries,
					k.Attributes.Successful,
				)
			}
		}

		return w.Flush()
	},
}

// targetDisks validates the disks given as arguments, or falls back to
// the disks backing /boot and the root filesystem.
func targetDisks(app *app, args []string) ([]*blockdev.Disk, error) {
	if len(args) == 0 {
		resolver := blockdev.NewPhysicalDiskResolver(
			blockdev.NewGraph(blockdev.WithLogger(app.logger)),
			blockdev.WithResolverLogger(app.logger),
		)

		if listCmdFlags.allDisks {
			return resolver.AllPhysicalDisks()
		}

		return resolver.BootablePhysicalDisks()
	}

	disks := make([]*blockdev.Disk, 0, len(args))

	for _, arg := range args {
		disk, err := blockdev.NewDisk(arg)
		if err != nil {
			return nil, err
		}

		disks = append(disks, disk)
	}

	return disks, nil
}

func init() {
	listCmd.Flags().BoolVarP(&listCmdFlags.allDisks, "all-disks", "a", false, "list partitions on all disks")

	addCommand(listCmd)
}
