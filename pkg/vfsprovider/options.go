package vfsprovider

import (
	vfserrors "github.com/marmos91/vfsprovider/pkg/errors"
)

// OpenMode is the access mode requested by an OpenFile request.
type OpenMode int

const (
	OpenRead OpenMode = iota
	OpenWrite
)

func (m OpenMode) String() string {
	if m == OpenWrite {
		return "Write"
	}
	return "Read"
}

// RequestOptions is the kind-tagged input payload carried on a fired
// event. Each request kind has exactly one concrete implementation.
// Accessors exist so the rest of the package can handle options
// polymorphically without a type switch at every call site; an
// options record is logically immutable once it has been published as
// part of an event (spec §4.1), even though its fields are exported
// for construction by the native service.
type RequestOptions interface {
	Kind() RequestKind
	FileSystemID() string
	RequestID() uint32
}

type base struct {
	fsID string
	reqID uint32
}

func (b base) FileSystemID() string { return b.fsID }
func (b base) RequestID() uint32    { return b.reqID }

// UnmountOptions carries the fields common to mount and unmount
// requests. MountOptions logically extends it with mount-only fields.
type UnmountOptions struct {
	base
}

func (UnmountOptions) Kind() RequestKind { return RequestUnmount }

// NewUnmountOptions constructs an UnmountOptions for fileSystemID.
func NewUnmountOptions(fileSystemID string, requestID uint32) UnmountOptions {
	return UnmountOptions{base{fsID: fileSystemID, reqID: requestID}}
}

// MountOptions carries the parameters of a mount request. Writable
// and OpenedFilesLimit default to false/0 (no explicit limit) when
// constructed via NewMountOptions, matching the original source.
type MountOptions struct {
	base
	DisplayName      string
	Writable         bool
	OpenedFilesLimit uint32
}

func (MountOptions) Kind() RequestKind { return RequestMount }

// NewMountOptions constructs a MountOptions with writable=false and
// openedFilesLimit=0 defaults.
func NewMountOptions(fileSystemID, displayName string, requestID uint32) MountOptions {
	return MountOptions{base: base{fsID: fileSystemID, reqID: requestID}, DisplayName: displayName}
}

// GetMetadataOptions carries the path whose metadata is requested.
type GetMetadataOptions struct {
	base
	EntryPath string
}

func (GetMetadataOptions) Kind() RequestKind { return RequestGetMetadata }

func NewGetMetadataOptions(fileSystemID, entryPath string, requestID uint32) GetMetadataOptions {
	return GetMetadataOptions{base: base{fsID: fileSystemID, reqID: requestID}, EntryPath: entryPath}
}

// ReadDirectoryOptions carries the directory to list.
type ReadDirectoryOptions struct {
	base
	DirectoryPath string
}

func (ReadDirectoryOptions) Kind() RequestKind { return RequestReadDirectory }

func NewReadDirectoryOptions(fileSystemID, directoryPath string, requestID uint32) ReadDirectoryOptions {
	return ReadDirectoryOptions{base: base{fsID: fileSystemID, reqID: requestID}, DirectoryPath: directoryPath}
}

// OpenFileOptions carries the path and mode of an open request.
type OpenFileOptions struct {
	base
	FilePath string
	Mode     OpenMode
}

func (OpenFileOptions) Kind() RequestKind { return RequestOpenFile }

func NewOpenFileOptions(fileSystemID, filePath string, mode OpenMode, requestID uint32) OpenFileOptions {
	return OpenFileOptions{base: base{fsID: fileSystemID, reqID: requestID}, FilePath: filePath, Mode: mode}
}

// CloseFileOptions references a previously opened file by the request
// id returned from its OpenFile. The manager does not verify that
// OpenRequestID denotes a live OpenFile request of this manager; the
// id is delivered verbatim and it is the provider's responsibility to
// produce an error code if it is stale or of the wrong kind.
type CloseFileOptions struct {
	base
	OpenRequestID uint32
}

func (CloseFileOptions) Kind() RequestKind { return RequestCloseFile }

func NewCloseFileOptions(fileSystemID string, openRequestID, requestID uint32) CloseFileOptions {
	return CloseFileOptions{base: base{fsID: fileSystemID, reqID: requestID}, OpenRequestID: openRequestID}
}

// ReadFileOptions carries the range to read from a previously opened
// file.
type ReadFileOptions struct {
	base
	OpenRequestID uint32
	Offset        uint64
	Length        uint64
}

func (ReadFileOptions) Kind() RequestKind { return RequestReadFile }

func NewReadFileOptions(fileSystemID string, openRequestID uint32, offset, length uint64, requestID uint32) ReadFileOptions {
	return ReadFileOptions{
		base:          base{fsID: fileSystemID, reqID: requestID},
		OpenRequestID: openRequestID,
		Offset:        offset,
		Length:        length,
	}
}

// AbortOptions references the in-flight request to cancel. Abort is a
// protocol-level cancellation: it does not itself remove the target
// from the manager (spec §5).
type AbortOptions struct {
	base
	OperationRequestID uint32
}

func (AbortOptions) Kind() RequestKind { return RequestAbort }

func NewAbortOptions(fileSystemID string, operationRequestID, requestID uint32) AbortOptions {
	return AbortOptions{base: base{fsID: fileSystemID, reqID: requestID}, OperationRequestID: operationRequestID}
}

// validateOptionsKind returns an ErrTypeMismatch ProviderError if
// opts is not the expected concrete type for kind. Constructing a
// typed options/value from a mismatched kind is a fatal programming
// error (spec §4.1), reported here rather than left to panic.
func validateOptionsKind(kind RequestKind, opts RequestOptions) error {
	if opts == nil {
		return vfserrors.New(vfserrors.ErrInvalidArgument, "nil options")
	}
	if !kind.Valid() {
		return vfserrors.Newf(vfserrors.ErrInvalidArgument, "unknown request kind %v", kind)
	}
	if opts.Kind() != kind {
		return vfserrors.Newf(vfserrors.ErrTypeMismatch, "options of concrete type %T (kind %s) do not match request kind %s", opts, opts.Kind(), kind)
	}
	return nil
}

// ToWire flattens opts into an opaque field map for transport across
// the native/scripted boundary. The wire representation itself is
// defined outside this core (spec §1); this is the symmetric half of
// FromWire for callers that need to round-trip through it.
func ToWire(opts RequestOptions) map[string]any {
	fields := map[string]any{
		"fileSystemId": opts.FileSystemID(),
		"requestId":    opts.RequestID(),
	}
	switch o := opts.(type) {
	case MountOptions:
		fields["displayName"] = o.DisplayName
		fields["writable"] = o.Writable
		fields["openedFilesLimit"] = o.OpenedFilesLimit
	case GetMetadataOptions:
		fields["entryPath"] = o.EntryPath
	case ReadDirectoryOptions:
		fields["directoryPath"] = o.DirectoryPath
	case OpenFileOptions:
		fields["filePath"] = o.FilePath
		fields["mode"] = o.Mode.String()
	case CloseFileOptions:
		fields["openRequestId"] = o.OpenRequestID
	case ReadFileOptions:
		fields["openRequestId"] = o.OpenRequestID
		fields["offset"] = o.Offset
		fields["length"] = o.Length
	case AbortOptions:
		fields["operationRequestId"] = o.OperationRequestID
	}
	return fields
}

// FromWire reconstructs typed RequestOptions for kind from an opaque
// field map. A field that is missing or of an unexpected type takes
// its zero value; no field is reported as an error. The only error is
// ErrInvalidArgument for an unrecognized kind.
func FromWire(kind RequestKind, fields map[string]any) (RequestOptions, error) {
	fsID, _ := fields["fileSystemId"].(string)
	reqID := toUint32(fields["requestId"])

	switch kind {
	case RequestMount:
		o := NewMountOptions(fsID, stringField(fields, "displayName"), reqID)
		o.Writable, _ = fields["writable"].(bool)
		o.OpenedFilesLimit = toUint32(fields["openedFilesLimit"])
		return o, nil
	case RequestUnmount:
		return NewUnmountOptions(fsID, reqID), nil
	case RequestGetMetadata:
		return NewGetMetadataOptions(fsID, stringField(fields, "entryPath"), reqID), nil
	case RequestReadDirectory:
		return NewReadDirectoryOptions(fsID, stringField(fields, "directoryPath"), reqID), nil
	case RequestOpenFile:
		mode := OpenRead
		if stringField(fields, "mode") == "Write" {
			mode = OpenWrite
		}
		return NewOpenFileOptions(fsID, stringField(fields, "filePath"), mode, reqID), nil
	case RequestCloseFile:
		return NewCloseFileOptions(fsID, toUint32(fields["openRequestId"]), reqID), nil
	case RequestReadFile:
		return NewReadFileOptions(fsID, toUint32(fields["openRequestId"]), toUint64(fields["offset"]), toUint64(fields["length"]), reqID), nil
	case RequestAbort:
		return NewAbortOptions(fsID, toUint32(fields["operationRequestId"]), reqID), nil
	default:
		return nil, vfserrors.Newf(vfserrors.ErrInvalidArgument, "unknown request kind %v", kind)
	}
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func toUint32(v any) uint32 {
	switch n := v.(type) {
	case uint32:
		return n
	case int:
		return uint32(n)
	case int64:
		return uint32(n)
	case float64:
		return uint32(n)
	default:
		return 0
	}
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int:
		return uint64(n)
	case int64:
		return uint64(n)
	case float64:
		return uint64(n)
	default:
		return 0
	}
}
