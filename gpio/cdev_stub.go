//go:build !linux

package gpio

import "errors"

// The GPIO character device only exists on Linux; Open falls through to
// the other backends on every other platform.
func openCdev(pin int) (Port, error) {
	return nil, errors.New("gpio character device requires Linux")
}
