// Package knnerr defines the sentinel error kinds shared by every
// component of the ring-pipelined k-NN engine. Callers wrap one of these
// with fmt.Errorf("...: %w", knnerr.ErrX) and check kind with errors.Is.
package knnerr

import "errors"

var (
	// ErrInvalidArgument covers nonsensical k or world size, mismatched
	// column widths between data and query chunks, and an empty data
	// chunk. A data chunk with fewer rows than k (or k+1 on the
	// self-match-dropping iteration) is not an error: the search pads the
	// row with empty pairs that later ring iterations fill in.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAllocationFailure covers any buffer or matrix allocation
	// failure. The local brute-force kernel and merge operator must not
	// fail for any other reason, since all sizes are known in advance.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrIOFailure covers file open/read errors and short header reads.
	ErrIOFailure = errors.New("io failure")

	// ErrMalformedFrame covers a deserialized byte length disagreeing
	// with the frame's own header.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrTransportFailure covers ring send/recv failures.
	ErrTransportFailure = errors.New("transport failure")

	// ErrAborted covers a pipeline unwinding early because an operator
	// requested a cooperative abort through the admin surface.
	ErrAborted = errors.New("aborted")
)
