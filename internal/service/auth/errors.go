package auth

import "errors"

// ErrInvalidToken is the single error returned for every token that fails
// verification: bad signature, malformed structure, wrong algorithm,
// missing subject or expiry. Callers cannot tell the causes apart.
var ErrInvalidToken = errors.New("invalid authentication token")

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("password does not match")
