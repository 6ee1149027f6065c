package analytics

import "errors"

// ErrEmptyInput means no row survived cleaning, so no mean or ratio can be
// computed. An all-zero result over real rows is not an error.
var ErrEmptyInput = errors.New("no usable rows after cleaning")
