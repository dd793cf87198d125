package services

import "errors"

var (
	// ErrRepositoryAccess aborts a run: no meaningful output is possible
	// without a readable tag listing.
	ErrRepositoryAccess = errors.New("repository access failed")

	ErrNoPrefixes = errors.New("no tag prefixes configured")

	ErrCredentialNotFound = errors.New("credential not found")
)

// ErrContentWrite marks a run where at least one day record was not written.
var ErrContentWrite = errors.New("content write failed")
