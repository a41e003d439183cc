package pipeline

import (
	"errors"
	"fmt"
)

type FetchErrorKind string

const (
	FetchTimeout           FetchErrorKind = "timeout"
	FetchConnectionFailure FetchErrorKind = "connection_failure"
	FetchHTTPStatus        FetchErrorKind = "http_status"
	FetchRateLimited       FetchErrorKind = "rate_limited"
	FetchExhausted         FetchErrorKind = "exhausted"
)

// FetchError classifies a failed fetch so callers can tell transient
// connectivity trouble apart from deterministic upstream rejections.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPStatus, FetchRateLimited:
		return fmt.Sprintf("fetch %s: HTTP %d", e.Kind, e.StatusCode)
	case FetchExhausted:
		return fmt.Sprintf("fetch exhausted after %d attempts: %v", e.Attempts, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("fetch %s", e.Kind)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

type ParseErrorKind string

const (
	ParseNotJSON   ParseErrorKind = "not_json"
	ParseMalformed ParseErrorKind = "malformed"
)

type ParseError struct {
	Kind ParseErrorKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("parse %s", e.Kind)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrInvalidShape is the only extraction failure: the document is not an
// object carrying a "data" list. Per-record problems never reach it.
var ErrInvalidShape = errors.New(`invalid shape: missing or non-list "data" field`)

type Stage string

const (
	StageFetch   Stage = "fetch"
	StageParse   Stage = "parse"
	StageExtract Stage = "extract"
)

// PipelineError tags a stage failure with the stage that produced it.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
