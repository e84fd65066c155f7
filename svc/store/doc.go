// Package store holds pastes in process memory and enforces their expiry.
//
// A paste can carry a time limit, a view quota, both or neither. Both are
// checked when the paste is read (lazy eviction): a read that finds the
// paste expired or out of views deletes it and reports
// domain.ErrPasteNotFound, the same error an unknown id gets. Every
// operation takes the current time as an argument and runs under one
// mutex, so concurrent reads of a paste with a quota of N grant exactly N
// successes.
//
// Sweep and StartSweeper remove entries a read would remove anyway; they
// are optional and never decrement a quota.
package store
