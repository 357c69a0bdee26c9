// Package users holds everything about who may use the logger.
//
// Operators are listed in a flat CSV file of username/password pairs
// (see auth). A successful login opens a session stored next to the
// attendance table and returns a long-lived refresh token plus a short-lived
// JWT access token that the HTTP middleware checks on every API call
// (see sessions and util).
package users
