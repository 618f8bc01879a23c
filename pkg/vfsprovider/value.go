package vfsprovider

import (
	vfserrors "github.com/marmos91/vfsprovider/pkg/errors"
)

// RequestValue is the kind-tagged output payload produced for a
// request. Concat merges a streamed partial value onto the receiver
// and returns the merged value, preserving submission order (spec §3,
// §4.4); the receiver itself is not modified.
type RequestValue interface {
	Kind() RequestKind
	// concat merges other into the receiver. other is guaranteed by
	// the manager to be the same concrete type.
	concat(other RequestValue) RequestValue
}

// UnitValue is the empty response carried by mount, unmount, open,
// close, and abort.
type UnitValue struct{ kind RequestKind }

func NewUnitValue(kind RequestKind) UnitValue { return UnitValue{kind: kind} }

func (v UnitValue) Kind() RequestKind { return v.kind }

// concat is a no-op: Unit carries no data to merge.
func (v UnitValue) concat(RequestValue) RequestValue { return v }

// MetadataValue carries a single EntryMetadata. It is a single-shot
// value: additional chunks from a streamed fulfill are discarded
// rather than merged (spec §3, §4.4) — the first accumulator-adopted
// value wins.
type MetadataValue struct {
	Metadata EntryMetadata
}

func (v MetadataValue) Kind() RequestKind { return RequestGetMetadata }

// concat is a no-op for metadata: additional partial chunks are a
// protocol error but tolerated for robustness rather than rejected.
func (v MetadataValue) concat(RequestValue) RequestValue { return v }

// ReadDirectoryValue carries an ordered sequence of directory entries,
// possibly delivered across multiple chunks.
type ReadDirectoryValue struct {
	Entries []EntryMetadata
}

func (v ReadDirectoryValue) Kind() RequestKind { return RequestReadDirectory }

func (v ReadDirectoryValue) concat(other RequestValue) RequestValue {
	o := other.(ReadDirectoryValue)
	merged := make([]EntryMetadata, 0, len(v.Entries)+len(o.Entries))
	merged = append(merged, v.Entries...)
	merged = append(merged, o.Entries...)
	return ReadDirectoryValue{Entries: merged}
}

// ReadFileValue carries a byte range, possibly delivered across
// multiple chunks that concatenate in submission order.
type ReadFileValue struct {
	Data []byte
}

func (v ReadFileValue) Kind() RequestKind { return RequestReadFile }

func (v ReadFileValue) concat(other RequestValue) RequestValue {
	o := other.(ReadFileValue)
	merged := make([]byte, 0, len(v.Data)+len(o.Data))
	merged = append(merged, v.Data...)
	merged = append(merged, o.Data...)
	return ReadFileValue{Data: merged}
}

// Concat merges other into self and returns the merged value, after
// verifying both are the same concrete variant. It is the exported
// counterpart of the interface's unexported concat, used by callers
// outside the manager (e.g. tests) that want to exercise the
// streaming contract directly. concat called with a mismatched
// variant is a programming error; Concat reports it as ErrTypeMismatch
// instead of panicking (spec §4.1).
func Concat(self, other RequestValue) (RequestValue, error) {
	if self == nil || other == nil {
		return nil, vfserrors.New(vfserrors.ErrInvalidArgument, "nil value passed to Concat")
	}
	if self.Kind() != other.Kind() {
		return nil, vfserrors.Newf(vfserrors.ErrTypeMismatch, "cannot concat %s value onto %s value", other.Kind(), self.Kind())
	}
	return self.concat(other), nil
}
