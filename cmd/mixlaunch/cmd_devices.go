package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certlab/mixlaunch/internal/devices"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List accelerators available for pinning runs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			inv := devices.Detect(cmd.Context())

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(inv)
			}

			if len(inv.Devices) == 0 {
				fmt.Println("No accelerators detected.")
				if inv.Reason != "" {
					fmt.Printf("Reason: %s\n", inv.Reason)
				}
				return nil
			}

			fmt.Printf("Detected accelerators (%d):\n\n", len(inv.Devices))
			for _, d := range inv.Devices {
				fmt.Printf("  [%d] %-32s %6d MiB  cc %s\n",
					d.Index, d.Name, d.MemoryMB, d.ComputeCapability)
			}
			return nil
		},
	}
}
