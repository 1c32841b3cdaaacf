//go:build !windows

// Package process manages external helper processes (rasterizers, browsers)
// as process groups so a timeout takes down every child they spawned.
package process

import (
	"os/exec"
	"syscall"
)

// Isolate places cmd in its own process group. Call before cmd.Start.
func Isolate(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort; the caller still waits on the direct child.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
