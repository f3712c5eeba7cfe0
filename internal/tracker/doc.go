// Package tracker forwards commerce lifecycle notifications to the analytics
// API: cart additions, checkout page views and completed sales.
//
// Each handler resolves the project token fresh, does nothing when tracking
// is disabled, and never reports a failure back to the host. A sale is
// reported only on the transition into a completed payment status.
package tracker
