package model

import "errors"

// ErrNotFound is returned by stores when the requested entity does not exist.
var ErrNotFound = errors.New("not found")
