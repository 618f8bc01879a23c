package vfsprovider

import "time"

// EntryMetadata describes a single file or directory entry. It is
// immutable once populated: callers that need to mutate a field build
// a new value rather than editing in place.
type EntryMetadata struct {
	IsDirectory      bool
	Name             string
	Size             uint64
	ModificationTime time.Time
	MimeType         string // empty means absent
}

// HasMimeType reports whether MimeType was supplied.
func (m EntryMetadata) HasMimeType() bool {
	return m.MimeType != ""
}
