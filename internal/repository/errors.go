package repository

import "errors"

// Custom error types
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrAPIKeyMissing    = errors.New("API key missing")
	ErrUnauthorized     = errors.New("API key rejected")
	ErrExternalAPI      = errors.New("external API error")
	ErrISSUnavailable   = errors.New("ISS position unavailable")
	ErrInvalidTLE       = errors.New("invalid TLE")
	ErrNoSunEvents      = errors.New("no sunrise or sunset on this date")
)
