package cache

import "errors"

// ErrConfiguration is returned when a cache geometry cannot be simulated.
// Every geometry error wraps it, so callers can test with errors.Is.
var ErrConfiguration = errors.New("invalid cache configuration")

// ErrUninitializedRead is returned when a word is read before anything in
// the hierarchy has written it. No default value is ever synthesized.
var ErrUninitializedRead = errors.New("read of uninitialized memory")
