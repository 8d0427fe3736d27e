//go:build !windows

package jobs

import (
	"golang.org/x/sys/unix"
)

// OSWaiter polls child processes with wait4(2) and WNOHANG.
type OSWaiter struct{}

var _ Waiter = OSWaiter{}

// Exited implements Waiter. Collecting the status also releases the zombie.
func (OSWaiter) Exited(pid int) (bool, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return false, err
		}
		return wpid == pid, nil
	}
}
