package gv

import "errors"

var (
	// ErrNotFound is returned by lookups that miss. Callers that treat a
	// miss as an empty result should check for it with errors.Is.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateHash is returned when inserting an asset whose content
	// hash already exists in the catalog, including soft-deleted rows.
	ErrDuplicateHash = errors.New("content hash already exists")

	// ErrAssetMissing is returned when a tag or annotation references an
	// asset row that does not physically exist.
	ErrAssetMissing = errors.New("asset does not exist")

	// ErrTransport indicates the encryption collaborator could not be
	// reached or produced output the client could not parse.
	ErrTransport = errors.New("encryption gateway transport error")

	// ErrCollaborator indicates the collaborator ran but reported failure
	// (for example a wrong password). The wrapped message carries the
	// collaborator's own error text verbatim.
	ErrCollaborator = errors.New("encryption gateway failure")
)
