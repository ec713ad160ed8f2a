// Package notifications delivers job lifecycle events through ntfy. A noop
// implementation stands in when no topic is configured so callers never need
// nil checks.
package notifications
