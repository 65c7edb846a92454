//go:build !linux

package cli

import (
	"errors"

	"github.com/peterh/liner"
)

func isTerminal(_ uintptr) bool {
	return liner.TerminalSupported()
}

func diskFree(_ string) (uint64, error) {
	return 0, errors.ErrUnsupported
}
