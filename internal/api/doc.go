// Package api handles incoming HTTP requests for users, tasks and
// categories. Handlers decode and validate JSON bodies, read the caller's
// identity placed in the context by the authentication gate, call the
// services and translate their errors into status codes and safe messages.
package api
