// Package auth provides the bearer token service and password hashing.
package auth
