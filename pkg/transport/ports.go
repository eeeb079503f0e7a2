package transport

import (
	"path/filepath"
	"runtime"
	"sort"
)

var portPatterns = []string{"/dev/ttyS*", "/dev/ttyUSB*", "/dev/ttyACM*", "/dev/tty.usb*"}

// ListPorts enumerates candidate serial devices.
func ListPorts() []string {
	if runtime.GOOS == "windows" {
		return nil
	}
	var ports []string
	for _, pattern := range portPatterns {
		matches, _ := filepath.Glob(pattern)
		ports = append(ports, matches...)
	}
	sort.Strings(ports)
	return ports
}
