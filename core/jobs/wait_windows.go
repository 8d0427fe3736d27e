//go:build windows

package jobs

import (
	"golang.org/x/sys/windows"
)

// OSWaiter polls child processes by waiting on their handle with a zero
// timeout.
type OSWaiter struct{}

var _ Waiter = OSWaiter{}

// Exited implements Waiter. A process that can't be opened anymore is gone.
func (OSWaiter) Exited(pid int) (bool, error) {
	h, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(pid))
	if err != nil {
		return false, err
	}
	defer windows.CloseHandle(h)

	event, err := windows.WaitForSingleObject(h, 0)
	if err != nil {
		return false, err
	}
	return event == windows.WAIT_OBJECT_0, nil
}
