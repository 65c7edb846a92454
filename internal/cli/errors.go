package cli

import "errors"

// Error variables for CLI parsing and configuration.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrPageSizeInvalid    = errors.New("page_size must be a positive integer")
	ErrFormatInvalid      = errors.New(`format must be "gob" or "json"`)
	ErrUnknownCommand     = errors.New("unknown command")
	ErrMissingArgument    = errors.New("missing argument")
	ErrInvalidIndex       = errors.New("invalid index")
)
