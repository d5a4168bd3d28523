//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package device

import "runtime"

func platformInfo() (osVersion, model string) {
	return "", runtime.GOARCH
}
