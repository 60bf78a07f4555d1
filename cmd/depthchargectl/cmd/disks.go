// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/blockdev"
)

var disksCmdFlags struct {
	all bool
}

var disksCmd = &cobra.Command{
	Use:   "disks [device...]",
	Short: "Print the physical disks this machine can boot from",
	Long: `Print the physical disks backing /boot and the root filesystem, or the
physical disks underneath the given devices (which may be partitions or
device-mapper targets).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		resolver := blockdev.NewPhysicalDiskResolver(
			blockdev.NewGraph(blockdev.WithLogger(app.logger)),
			blockdev.WithResolverLogger(app.logger),
		)

		var disks []*blockdev.Disk

		switch {
		case len(args) > 0:
			for _, arg := range args {
				parents, err := resolver.PhysicalParents(arg)
				if err != nil {
					return fmt.Errorf("error resolving %s: %w", arg, err)
				}

				disks = append(disks, parents...)
			}

		case disksCmdFlags.all:
			disks, err = resolver.AllPhysicalDisks()

		default:
			disks, err = resolver.BootablePhysicalDisks()
		}

		if err != nil {
			return err
		}

		for _, disk := range disks {
			fmt.Println(disk.Path)
		}

		return nil
	},
}

func init() {
	disksCmd.Flags().BoolVarP(&disksCmdFlags.all, "all-disks", "a", false, "print all physical disks")

	addCommand(disksCmd)
}
