//go:build !windows

package launch

import (
	"os/exec"
	"syscall"
)

// setupProcessGroup places the child in its own process group and makes
// cancellation kill that whole group. Trainers fork worker processes
// (dataloaders) that inherit the output pipes; killing only the direct child
// would leave them holding the pipes open and block Wait.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
