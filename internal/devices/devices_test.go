package devices

import "testing"

func TestParseInventory(t *testing.T) {
	output := `0, NVIDIA GeForce RTX 3090, 24576, 8.6
1, NVIDIA A100-SXM4-40GB, 40960, 8.0
`
	inv := parseInventory(output)
	if inv.Reason != "" {
		t.Errorf("unexpected reason: %q", inv.Reason)
	}
	if len(inv.Devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(inv.Devices))
	}

	d := inv.Devices[0]
	if d.Index != 0 || d.Name != "NVIDIA GeForce RTX 3090" || d.MemoryMB != 24576 || d.ComputeCapability != "8.6" {
		t.Errorf("device 0 parsed wrong: %+v", d)
	}
	if inv.Devices[1].Index != 1 || inv.Devices[1].ComputeCapability != "8.0" {
		t.Errorf("device 1 parsed wrong: %+v", inv.Devices[1])
	}
}

func TestParseInventorySkipsMalformedLines(t *testing.T) {
	output := `0, NVIDIA GeForce RTX 3090, 24576, 8.6
garbage line
x, Bad Index, 1024, 7.5

1, NVIDIA T4, 16384, 7.5`
	inv := parseInventory(output)
	if len(inv.Devices) != 2 {
		t.Fatalf("got %d devices, want 2: %+v", len(inv.Devices), inv.Devices)
	}
	if inv.Devices[1].Name != "NVIDIA T4" {
		t.Errorf("device 1 = %+v", inv.Devices[1])
	}
}

func TestParseInventoryEmpty(t *testing.T) {
	inv := parseInventory("")
	if len(inv.Devices) != 0 {
		t.Errorf("expected no devices, got %+v", inv.Devices)
	}
	if inv.Reason == "" {
		t.Error("empty inventory should carry a reason")
	}
}

func TestParseInventoryMemoryNA(t *testing.T) {
	inv := parseInventory("0, NVIDIA GeForce GTX 1080, [N/A], 6.1")
	if len(inv.Devices) != 1 {
		t.Fatalf("got %d devices, want 1", len(inv.Devices))
	}
	if inv.Devices[0].MemoryMB != 0 {
		t.Errorf("memory = %d, want 0 for [N/A]", inv.Devices[0].MemoryMB)
	}
}
