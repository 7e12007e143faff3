package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"ETFScraper/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	doc     models.RawDocument
	err     error
	tickers []string
}

func (s *stubSource) Fetch(_ context.Context, ticker string) (models.RawDocument, error) {
	s.tickers = append(s.tickers, ticker)
	return s.doc, s.err
}

type recordingEvents struct {
	mu     sync.Mutex
	events []models.FetchEvent
	err    error
}

func (r *recordingEvents) PublishFetch(_ context.Context, ev models.FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingEvents) Close() error { return nil }

type recordingMetrics struct {
	results []string
	skipped int
	ops     []string
}

func (m *recordingMetrics) RecordUpstreamAttempt(string, string) {}

func (m *recordingMetrics) RecordFetchResult(status, kind string, _ int) {
	m.results = append(m.results, status+"/"+kind)
}

func (m *recordingMetrics) RecordHoldingsSkipped(n int) { m.skipped += n }

func (m *recordingMetrics) RecordLatency(op string, _ float64) { m.ops = append(m.ops, op) }

func TestGetETFHoldingsSuccess(t *testing.T) {
	src := &stubSource{doc: doc(t, withHoldings(`[
		{"symbol":"AAPL","weight":"7.49%","name":"Apple"},
		{"symbol":"BAD","weight":"150%","name":"Bad"}
	]`))}
	events := &recordingEvents{}
	m := &recordingMetrics{}
	f := NewHoldingsFetcher(src, nil, events, m, nil)

	res := f.GetETFHoldings(t.Context(), " spy ")

	assert.Equal(t, []string{"SPY"}, src.tickers)
	require.Len(t, res.Holdings, 1)
	assert.False(t, res.Failed)
	assert.Equal(t, models.StatusOK, res.Status)

	assert.Equal(t, []string{"ok/"}, m.results)
	assert.Equal(t, 1, m.skipped)
	assert.Equal(t, []string{"get_etf_holdings"}, m.ops)

	require.Len(t, events.events, 1)
	ev := events.events[0]
	assert.Equal(t, models.FetchEventType, ev.Type)
	assert.Equal(t, "SPY", ev.Symbol)
	assert.Equal(t, 1, ev.Holdings)
	assert.Equal(t, 1, ev.Skipped)
	assert.Empty(t, ev.Error)
}

func TestGetETFHoldingsUpstreamFailure(t *testing.T) {
	src := &stubSource{err: &models.FetchError{Kind: models.ErrorKindTimeout, Err: context.DeadlineExceeded}}
	events := &recordingEvents{}
	m := &recordingMetrics{}
	f := NewHoldingsFetcher(src, nil, events, m, nil)

	res := f.GetETFHoldings(t.Context(), "SPY")

	assert.True(t, res.Failed)
	assert.NotNil(t, res.Holdings)
	assert.Empty(t, res.Holdings)
	require.NotNil(t, res.Error)
	assert.Equal(t, models.ErrorKindTimeout, *res.Error)
	assert.Equal(t, models.StatusUpstreamFailed, res.Status)
	assert.Equal(t, []string{"upstream_failed/timeout_error"}, m.results)

	require.Len(t, events.events, 1)
	assert.Equal(t, models.ErrorKindTimeout, events.events[0].Error)
}

func TestGetETFHoldingsUntypedErrorIsRequestFailed(t *testing.T) {
	f := NewHoldingsFetcher(&stubSource{err: errors.New("boom")}, nil, nil, nil, nil)

	res := f.GetETFHoldings(t.Context(), "SPY")
	require.NotNil(t, res.Error)
	assert.Equal(t, models.ErrorKindRequestFailed, *res.Error)
}

func TestGetETFHoldingsPublishFailureIgnored(t *testing.T) {
	src := &stubSource{doc: doc(t, withHoldings(`[]`))}
	events := &recordingEvents{err: errors.New("broker down")}
	f := NewHoldingsFetcher(src, nil, events, nil, nil)

	res := f.GetETFHoldings(t.Context(), "SPY")
	assert.Equal(t, models.StatusEmpty, res.Status)
	assert.True(t, res.Failed)
	assert.Nil(t, res.Error)
}

func TestFetchResultJSON(t *testing.T) {
	f := NewHoldingsFetcher(&stubSource{doc: doc(t, withHoldings(`[{"symbol":"AAPL","weight":"7.12345678%","name":"Apple"}]`))}, nil, nil, nil, nil)
	b, err := json.Marshal(f.GetETFHoldings(t.Context(), "SPY"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"holdings":[{"symbol":"AAPL","weight":7.12345678,"name":"Apple"}],"failed":false,"status":"ok"}`, string(b))

	failed, err := json.Marshal(models.UpstreamFailure(models.ErrorKindGateway))
	require.NoError(t, err)
	assert.JSONEq(t, `{"holdings":[],"failed":true,"error":"gateway_error","status":"upstream_failed"}`, string(failed))
}
