// Package devices enumerates the accelerators a run can be pinned to.
//
// Detection shells out to nvidia-smi; a machine without it is reported as an
// empty inventory with a reason, not an error, so the launcher keeps working
// on CPU-only development hosts.
package devices

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Device is one accelerator visible to nvidia-smi.
type Device struct {
	// Index is the value exported as CUDA_VISIBLE_DEVICES for a run
	// pinned to this device.
	Index int `json:"index"`

	Name     string `json:"name"`
	MemoryMB int    `json:"memory_mb"`

	// ComputeCapability is the CUDA compute capability, e.g. "8.6".
	ComputeCapability string `json:"compute_capability"`
}

// Inventory is the result of one detection pass.
type Inventory struct {
	Devices []Device `json:"devices"`

	// Reason explains an empty inventory (nvidia-smi missing or failing).
	Reason string `json:"reason,omitempty"`
}

const queryArgs = "--query-gpu=index,name,memory.total,compute_cap"

// Detect enumerates GPUs via nvidia-smi.
func Detect(ctx context.Context) Inventory {
	cmd := exec.CommandContext(ctx, "nvidia-smi", queryArgs, "--format=csv,noheader,nounits")
	output, err := cmd.Output()
	if err != nil {
		return Inventory{Reason: fmt.Sprintf("nvidia-smi unavailable: %v", err)}
	}
	return parseInventory(string(output))
}

// parseInventory parses nvidia-smi CSV output, one device per line:
//
//	0, NVIDIA GeForce RTX 3090, 24576, 8.6
//
// Malformed lines are skipped rather than failing the whole inventory.
func parseInventory(output string) Inventory {
	var inv Inventory
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		// memory.total may be "[N/A]" on some driver versions
		memory, _ := strconv.Atoi(strings.TrimSpace(fields[2]))
		inv.Devices = append(inv.Devices, Device{
			Index:             index,
			Name:              strings.TrimSpace(fields[1]),
			MemoryMB:          memory,
			ComputeCapability: strings.TrimSpace(fields[3]),
		})
	}
	if len(inv.Devices) == 0 && inv.Reason == "" {
		inv.Reason = "nvidia-smi reported no devices"
	}
	return inv
}
