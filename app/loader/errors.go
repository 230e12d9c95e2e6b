package loader

import (
	"fmt"
)

// FetchError reports a transport failure or non-success response for one
// feed location.
type FetchError struct {
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch feed %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports that fetched bytes were not well-formed XML.
type ParseError struct {
	Location string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse feed %s: %v", e.Location, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
