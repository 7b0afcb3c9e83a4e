//go:build windows

package launch

import "os/exec"

// setupProcessGroup is a no-op on Windows. There is no process group to
// signal; exec's default Cancel kills the child and WaitDelay unblocks Wait
// if descendants still hold the output pipes.
func setupProcessGroup(cmd *exec.Cmd) {}
