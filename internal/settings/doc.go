// Package settings resolves the analytics project token from the host's
// settings store and contributes the tracker's fields to the host's general
// settings page.
//
// The token is read fresh on every triggering notification; nothing is cached
// between calls.
package settings
