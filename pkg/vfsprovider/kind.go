// Package vfsprovider implements the asynchronous request coordinator
// between a native virtual-filesystem service and a scripted, single
// threaded filesystem provider: request submission, typed event
// dispatch, streaming response accumulation, and in-order completion
// delivery back to the native caller.
package vfsprovider

// RequestKind identifies the shape of a request flowing through a
// RequestManager. Ordering is fixed: Valid treats every kind below
// Unknown as valid, so new kinds must be appended before Unknown.
type RequestKind int

const (
	RequestMount RequestKind = iota
	RequestUnmount
	RequestGetMetadata
	RequestReadDirectory
	RequestOpenFile
	RequestCloseFile
	RequestReadFile
	RequestAbort

	// RequestUnknown is a sentinel upper bound used only for
	// validation; it is never a valid request kind to submit.
	RequestUnknown
)

func (k RequestKind) String() string {
	switch k {
	case RequestMount:
		return "Mount"
	case RequestUnmount:
		return "Unmount"
	case RequestGetMetadata:
		return "GetMetadata"
	case RequestReadDirectory:
		return "ReadDirectory"
	case RequestOpenFile:
		return "OpenFile"
	case RequestCloseFile:
		return "CloseFile"
	case RequestReadFile:
		return "ReadFile"
	case RequestAbort:
		return "Abort"
	default:
		return "Unknown"
	}
}

// Valid reports whether k is one of the eight closed-enum request
// kinds recognized by the coordinator (Unknown excluded).
func (k RequestKind) Valid() bool {
	return k >= RequestMount && k < RequestUnknown
}

// eventNames maps each dispatchable request kind to the event name
// fired at the scripted event target (spec §4.2). Mount has no entry:
// mount is handled directly by the provider facade and never produces
// an event.
var eventNames = map[RequestKind]string{
	RequestUnmount:       "unmountrequested",
	RequestGetMetadata:   "getmetadatarequested",
	RequestReadDirectory: "readdirectoryrequested",
	RequestOpenFile:      "openfilerequested",
	RequestCloseFile:     "closefilerequested",
	RequestReadFile:      "readfilerequested",
	RequestAbort:         "abortrequested",
}

// EventName returns the fixed event name fired for k, and false if k
// does not produce an event (Mount, or an invalid kind).
func EventName(k RequestKind) (string, bool) {
	name, ok := eventNames[k]
	return name, ok
}
