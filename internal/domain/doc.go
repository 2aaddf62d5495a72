// Package domain contains the core entities of the task tracker (users,
// categories and tasks), their field rules, and the status derivation
// engine. Nothing here depends on storage or transport.
package domain
