package sys

import (
	"os"

	"golang.org/x/sys/unix"
)

// WithoutEcho runs f with input echo turned off on the terminal referenced by
// file. If file is not a terminal, f is just run.
func WithoutEcho(file *os.File, f func() error) error {
	fd := int(file.Fd())
	old, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return f()
	}
	noEcho := *old
	noEcho.Lflag &^= unix.ECHO
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &noEcho); err != nil {
		return f()
	}
	defer unix.IoctlSetTermios(fd, unix.TCSETS, old)
	return f()
}
