package etfcom

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ETFScraper/internal/domain/models"
	xhttp "ETFScraper/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Payload   Payload
	UserAgent string
	Accept    string
}

type fakeUpstream struct {
	mu     sync.Mutex
	calls  []recordedCall
	handle func(w http.ResponseWriter, p Payload)
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p Payload
	_ = json.NewDecoder(r.Body).Decode(&p)
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Payload: p, UserAgent: r.Header.Get("User-Agent"), Accept: r.Header.Get("Accept")})
	f.mu.Unlock()
	f.handle(w, p)
}

func (f *fakeUpstream) queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Payload.Query)
	}
	return out
}

type attemptRecorder struct {
	mu       sync.Mutex
	attempts []string
}

func (r *attemptRecorder) RecordUpstreamAttempt(query, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, query+":"+outcome)
}

func (r *attemptRecorder) RecordFetchResult(string, string, int) {}

func (r *attemptRecorder) RecordHoldingsSkipped(int) {}

func (r *attemptRecorder) RecordLatency(string, float64) {}

func newTestClient(t *testing.T, up *fakeUpstream, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)
	return New(append([]Option{WithURL(srv.URL)}, opts...)...)
}

func TestFetchFallsBackOnClientError(t *testing.T) {
	up := &fakeUpstream{handle: func(w http.ResponseWriter, p Payload) {
		if p.Query == QueryAllHoldings {
			http.Error(w, `{"message":"unknown query"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"topHoldings":{"data":[]}}}`))
	}}
	rec := &attemptRecorder{}
	c := newTestClient(t, up, WithMetrics(rec))

	doc, err := c.Fetch(t.Context(), "spy")
	require.NoError(t, err)
	assert.NotNil(t, doc.Value)
	assert.Equal(t, []string{QueryAllHoldings, QueryTopHoldings}, up.queries())
	assert.Equal(t, []string{"allHoldings:client_error", "topHoldings:ok"}, rec.attempts)

	for _, call := range up.calls {
		assert.Equal(t, "SPY", call.Payload.Variables.Ticker)
		assert.Equal(t, "", call.Payload.Variables.FundISIN)
		assert.Equal(t, DefaultUserAgent, call.UserAgent)
		assert.Equal(t, "application/json", call.Accept)
	}
}

func TestFetchStopsOnFirstSuccess(t *testing.T) {
	up := &fakeUpstream{handle: func(w http.ResponseWriter, p Payload) {
		_, _ = w.Write([]byte(`{"data":{"weight":7.25}}`))
	}}
	c := newTestClient(t, up)

	doc, err := c.Fetch(t.Context(), "QQQ")
	require.NoError(t, err)
	assert.Equal(t, []string{QueryAllHoldings}, up.queries())

	root := doc.Value.(map[string]any)
	data := root["data"].(map[string]any)
	assert.Equal(t, json.Number("7.25"), data["weight"])
	assert.JSONEq(t, `{"data":{"weight":7.25}}`, string(doc.Raw))
}

func TestFetchServerErrorTriesNextThenFails(t *testing.T) {
	up := &fakeUpstream{handle: func(w http.ResponseWriter, p Payload) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}}
	c := newTestClient(t, up)

	_, err := c.Fetch(t.Context(), "SPY")
	require.Error(t, err)
	assert.Equal(t, []string{QueryAllHoldings, QueryTopHoldings}, up.queries())
	assert.Equal(t, models.ErrorKindRequestFailed, models.ErrorKindOf(err))

	var se *xhttp.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestFetchGatewayError(t *testing.T) {
	up := &fakeUpstream{handle: func(w http.ResponseWriter, p Payload) {
		w.WriteHeader(http.StatusBadGateway)
	}}
	c := newTestClient(t, up)

	_, err := c.Fetch(t.Context(), "SPY")
	assert.Equal(t, models.ErrorKindGateway, models.ErrorKindOf(err))
}

func TestFetchLastErrorWins(t *testing.T) {
	up := &fakeUpstream{handle: func(w http.ResponseWriter, p Payload) {
		if p.Query == QueryAllHoldings {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}}
	c := newTestClient(t, up)

	_, err := c.Fetch(t.Context(), "SPY")
	assert.Equal(t, models.ErrorKindRequestFailed, models.ErrorKindOf(err))
}

func TestFetchTimeout(t *testing.T) {
	up := &fakeUpstream{handle: func(w http.ResponseWriter, p Payload) {
		time.Sleep(300 * time.Millisecond)
	}}
	c := newTestClient(t, up, WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(50*time.Millisecond))))

	_, err := c.Fetch(t.Context(), "SPY")
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindTimeout, models.ErrorKindOf(err))
	assert.Len(t, up.queries(), 2)
}

func TestFetchParseError(t *testing.T) {
	for name, body := range map[string]string{
		"html":     `<html>blocked</html>`,
		"trailing": `{"a":1} {"b":2}`,
	} {
		t.Run(name, func(t *testing.T) {
			up := &fakeUpstream{handle: func(w http.ResponseWriter, p Payload) {
				_, _ = w.Write([]byte(body))
			}}
			c := newTestClient(t, up)

			_, err := c.Fetch(t.Context(), "SPY")
			assert.Equal(t, models.ErrorKindParse, models.ErrorKindOf(err))
			assert.Equal(t, []string{QueryAllHoldings}, up.queries())
		})
	}
}

func TestFetchInvalidURLIsTransportError(t *testing.T) {
	c := New(WithURL("http://localhost:8081\x7f"))

	_, err := c.Fetch(t.Context(), "SPY")
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindTransport, models.ErrorKindOf(err))
	assert.ErrorIs(t, err, xhttp.ErrBuildRequest)
}

func TestClassifyUnexpected(t *testing.T) {
	assert.Equal(t, models.ErrorKindTimeout, classifyUnexpected(errors.New("read timed out")))
	assert.Equal(t, models.ErrorKindGateway, classifyUnexpected(errors.New("Bad Gateway")))
	assert.Equal(t, models.ErrorKindGateway, classifyUnexpected(errors.New("status 504")))
	assert.Equal(t, models.ErrorKindTransport, classifyUnexpected(errors.New("connection reset")))
}

func TestClassifyAttempt(t *testing.T) {
	assert.Equal(t, models.ErrorKindRequestFailed, classifyAttempt(nil))
	assert.Equal(t, models.ErrorKindGateway, classifyAttempt(&xhttp.StatusError{StatusCode: http.StatusGatewayTimeout}))
	assert.Equal(t, models.ErrorKindRequestFailed, classifyAttempt(&xhttp.StatusError{StatusCode: http.StatusServiceUnavailable}))
	assert.Equal(t, models.ErrorKindTimeout, classifyAttempt(errors.New("dial tcp: i/o timeout")))
}
