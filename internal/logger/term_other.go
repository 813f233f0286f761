//go:build !linux

package logger

import "os"

// IsTerminal always reports false off Linux; auto format falls back to JSON.
func IsTerminal(f *os.File) bool {
	return false
}
