// Package service contains the application use cases: task mutation and
// querying, the category lifecycle, and user registration and login.
//
// Services receive their stores through constructor injection and never
// depend on a concrete database. Every operation that touches user data
// takes the authenticated caller's ID as an explicit argument; ownership
// is checked here, not in the HTTP layer.
//
// Error handling:
//   - expected conditions are returned as sentinels (ErrNotOwned,
//     ErrProtectedCategory, ErrInvalidCredentials) or store sentinels
//     wrapped with %w
//   - rule violations are *domain.ValidationError values
//   - the API layer maps all of them to HTTP status codes
package service
