package domain

import "errors"

var (
	// ErrLoad reports an input file that cannot be opened or parsed.
	ErrLoad = errors.New("load dataset")
	// ErrMissingColumn reports a required column absent from the header.
	ErrMissingColumn = errors.New("missing required column")
	// ErrInvalidValue reports a cell that cannot be parsed as its column type.
	ErrInvalidValue = errors.New("invalid value")
	// ErrEmptySubset reports a filter that matched no rows.
	ErrEmptySubset = errors.New("empty subset")
	// ErrUnsorted reports rows that are not strictly date-ascending.
	ErrUnsorted = errors.New("rows not in ascending date order")
	// ErrInsufficientData reports too few complete rows for a statistic.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrWrite reports an output file that cannot be written.
	ErrWrite = errors.New("write output")
)
