// Package httputil provides the JSON response helpers used by the hook
// endpoints, so every reply to the host shares one envelope format.
package httputil
