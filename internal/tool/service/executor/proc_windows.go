//go:build windows

package executor

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// Windows has no SIGINT for child processes; interrupt is a kill.
func interruptProcess(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
}

func killProcess(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
}
