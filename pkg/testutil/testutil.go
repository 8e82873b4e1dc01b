// Package testutil contains test utilities shared by the packages of gsh:
// temporary directories on the OS or on an afero filesystem, and values and
// environment variables restored when a test ends.
package testutil

import "os"

// Cleanuper wraps the Cleanup method. It is satisfied by [*testing.T] and
// [*testing.B].
type Cleanuper interface {
	Cleanup(func())
}

// Set sets *p to v until the test ends.
func Set[T any](c Cleanuper, p *T, v T) {
	old := *p
	*p = v
	c.Cleanup(func() { *p = old })
}

// Setenv sets an environment variable until the test ends, and returns value.
func Setenv(c Cleanuper, name, value string) string {
	restoreEnv(c, name)
	os.Setenv(name, value)
	return value
}

// Unsetenv unsets an environment variable until the test ends.
func Unsetenv(c Cleanuper, name string) {
	restoreEnv(c, name)
	os.Unsetenv(name)
}

func restoreEnv(c Cleanuper, name string) {
	if old, ok := os.LookupEnv(name); ok {
		c.Cleanup(func() { os.Setenv(name, old) })
	} else {
		c.Cleanup(func() { os.Unsetenv(name) })
	}
}
