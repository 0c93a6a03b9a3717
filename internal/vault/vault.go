package vault

import "errors"

// ErrNotFound is returned by GetMetadata when nothing is stored under the
// requested host and name.
var ErrNotFound = errors.New("vault item not found")
