package common

import "errors"

// ErrInvalidToken marks an access token that cannot be decoded.
var ErrInvalidToken = errors.New("invalid token")
