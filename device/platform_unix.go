//go:build linux || darwin || freebsd || netbsd || openbsd

package device

import (
	"golang.org/x/sys/unix"
)

func platformInfo() (osVersion, model string) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", ""
	}
	return unix.ByteSliceToString(uts.Release[:]), unix.ByteSliceToString(uts.Machine[:])
}
