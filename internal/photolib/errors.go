package photolib

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes of the resolver and query layer.
// Structural errors (ErrBundleUnreadable, and any unresolved schema field
// when Options.StrictSchema is set) abort opening a session. Everything
// else is scoped to the single field, entity or operation that triggered
// it and never aborts a batch call.
var (
	// ErrBundleUnreadable means the bundle directory or its database file
	// is missing or cannot be opened.
	ErrBundleUnreadable = errors.New("bundle unreadable")

	// ErrMetadataRecordMissing means the database opened fine but the
	// record carrying the version marker was not found.
	ErrMetadataRecordMissing = errors.New("metadata record missing")

	// ErrDecodeFailure means an embedded blob could not be decoded.
	// Callers treat the affected field as absent.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrNotFound means a per-entity lookup missed.
	ErrNotFound = errors.New("not found")

	// ErrMalformedHierarchy means the folder tree contains a cycle or has
	// no single root. Fatal for tree-building calls only.
	ErrMalformedHierarchy = errors.New("malformed folder hierarchy")
)

// SchemaUnavailableError is returned by operations whose required schema
// identifiers could not be resolved for this bundle instance.
type SchemaUnavailableError struct {
	Feature string // the unresolved schema field, e.g. "album join table"
}

func (e *SchemaUnavailableError) Error() string {
	return fmt.Sprintf("schema unavailable: %s not resolved for this library", e.Feature)
}

// IsSchemaUnavailable reports whether err is a SchemaUnavailableError.
func IsSchemaUnavailable(err error) bool {
	var se *SchemaUnavailableError
	return errors.As(err, &se)
}

// Warning is a per-item problem encountered during a batch operation or
// during schema resolution. Batch operations return partial results plus
// warnings rather than failing the whole call.
type Warning struct {
	Context string // what was being done, e.g. "decode adjustment"
	Item    string // the affected entity (asset UUID, table name, ...)
	Err     error
}

func (w Warning) String() string {
	if w.Item == "" {
		return fmt.Sprintf("%s: %v", w.Context, w.Err)
	}
	return fmt.Sprintf("%s (%s): %v", w.Context, w.Item, w.Err)
}
