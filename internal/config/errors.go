package config

import "errors"

// ErrInvalidConfig is returned when settings are missing or inconsistent
var ErrInvalidConfig = errors.New("invalid configuration")
