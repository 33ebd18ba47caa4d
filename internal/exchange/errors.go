package exchange

import "errors"

// ErrInvalidPayload marks inbound payload bytes that fail validation.
var ErrInvalidPayload = errors.New("invalid namespaces payload")
