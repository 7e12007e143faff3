package models

import (
	"errors"
	"strings"
	"time"
)

// Holding is one constituent of an ETF.
type Holding struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"` // percent, 0 < w <= 100, 8 decimal places
	Name   string  `json:"name"`
}

// ErrorKind classifies upstream failures.
type ErrorKind string

const (
	ErrorKindTimeout       ErrorKind = "timeout_error"
	ErrorKindGateway       ErrorKind = "gateway_error"
	ErrorKindParse         ErrorKind = "parse_error"
	ErrorKindTransport     ErrorKind = "transport_error"
	ErrorKindRequestFailed ErrorKind = "upstream_request_failed"
)

// ResultStatus distinguishes the reasons a result may carry no holdings.
type ResultStatus string

const (
	StatusOK               ResultStatus = "ok"
	StatusEmpty            ResultStatus = "empty"             // holdings block present with no entries
	StatusExtractionFailed ResultStatus = "extraction_failed" // block missing, malformed or fully rejected
	StatusUpstreamFailed   ResultStatus = "upstream_failed"
)

// FetchResult is returned by the holdings endpoint.
type FetchResult struct {
	Holdings []Holding    `json:"holdings"`
	Failed   bool         `json:"failed"`
	Error    *ErrorKind   `json:"error,omitempty"`
	Status   ResultStatus `json:"status"`
}

// UpstreamFailure builds the result for a failed upstream fetch.
func UpstreamFailure(kind ErrorKind) FetchResult {
	return FetchResult{
		Holdings: []Holding{},
		Failed:   true,
		Error:    &kind,
		Status:   StatusUpstreamFailed,
	}
}

// NewFetchResult builds a result from normalized holdings. Failed is set
// whenever holdings is empty.
func NewFetchResult(holdings []Holding, status ResultStatus) FetchResult {
	if holdings == nil {
		holdings = []Holding{}
	}
	if len(holdings) > 0 {
		status = StatusOK
	}
	return FetchResult{
		Holdings: holdings,
		Failed:   len(holdings) == 0,
		Status:   status,
	}
}

// ErrorKindValue returns the error kind or "" when unset.
func (r FetchResult) ErrorKindValue() ErrorKind {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// FetchError is returned by the upstream client when no attempt succeeded.
type FetchError struct {
	Kind ErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrorKindOf extracts the kind from err, defaulting to upstream_request_failed.
func ErrorKindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ErrorKindRequestFailed
}

// RawDocument is a decoded upstream JSON document. Value holds the generic
// decoded tree (numbers as json.Number), Raw the original bytes.
type RawDocument struct {
	Value any
	Raw   []byte
}

// HoldingsRequest is bound from GET /etf-holdings/:symbol.
type HoldingsRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
}

// Normalize trims and uppercases the symbol.
func (r *HoldingsRequest) Normalize() {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
}

// FetchEvent is published after every holdings fetch.
type FetchEvent struct {
	Type       string       `json:"type"`
	Symbol     string       `json:"symbol"`
	Status     ResultStatus `json:"status"`
	Failed     bool         `json:"failed"`
	Error      ErrorKind    `json:"error,omitempty"`
	Holdings   int          `json:"holdings"`
	Skipped    int          `json:"skipped"`
	DurationMs int64        `json:"duration_ms"`
	Timestamp  time.Time    `json:"timestamp"`
}

// FetchEventType is the FetchEvent.Type of holdings fetch events.
const FetchEventType = "holdings.fetched"
