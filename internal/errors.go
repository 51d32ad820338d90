package internal

import (
	"errors"
	"fmt"
)

// FetchError reports that the raw sheet could not be acquired.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status=%d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports that fetched text is not a delimited table.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// UserMessage turns a refresh failure into text fit for the catalog page.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsFetchError(err):
		return "The drinks spreadsheet could not be reached. Please try again later."
	case IsParseError(err):
		return "The drinks spreadsheet returned data in an unexpected format. Check that it is shared as \"Anyone with the link can view\"."
	default:
		return "Failed to load drinks data. Please try again later."
	}
}

func RunStatusFor(err error) RunStatus {
	switch {
	case err == nil:
		return RunOK
	case IsFetchError(err):
		return RunFetchError
	case IsParseError(err):
		return RunParseError
	default:
		return RunFailed
	}
}
