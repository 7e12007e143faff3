package http

import (
	"bufio"
	"context"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// BrowserFingerprint maps a fingerprint name to a uTLS ClientHello. "none"
// (or any unknown name) reports false and callers fall back to the standard
// library transport.
func BrowserFingerprint(name string) (utls.ClientHelloID, bool) {
	switch name {
	case "chrome":
		return utls.HelloChrome_Auto, true
	case "firefox":
		return utls.HelloFirefox_Auto, true
	case "safari":
		return utls.HelloSafari_Auto, true
	case "edge":
		return utls.HelloEdge_Auto, true
	default:
		return utls.ClientHelloID{}, false
	}
}

// BrowserTransport is an http.RoundTripper whose TLS handshake mimics a real
// browser, which is what bot-detection layers in front of some APIs inspect.
// Every request dials a fresh connection; nothing is pooled between requests.
// Plain http URLs are sent through a regular transport. https requests honor
// the proxy by tunneling with CONNECT; only http:// proxies are supported.
type BrowserTransport struct {
	hello   utls.ClientHelloID
	dialer  *net.Dialer
	proxy   func(*http.Request) (*url.URL, error)
	plain   *http.Transport
	rootCAs *x509.CertPool
}

// BrowserTransportOption configures BrowserTransport.
type BrowserTransportOption func(*BrowserTransport)

// WithRootCAs overrides the system trust store.
func WithRootCAs(pool *x509.CertPool) BrowserTransportOption {
	return func(t *BrowserTransport) {
		t.rootCAs = pool
	}
}

// WithProxy overrides http.ProxyFromEnvironment. A nil func disables proxying.
func WithProxy(proxy func(*http.Request) (*url.URL, error)) BrowserTransportOption {
	return func(t *BrowserTransport) {
		t.proxy = proxy
	}
}

// NewBrowserTransport creates a transport presenting the given ClientHello.
func NewBrowserTransport(hello utls.ClientHelloID, opts ...BrowserTransportOption) *BrowserTransport {
	dialer := &net.Dialer{Timeout: 15 * time.Second, KeepAlive: 30 * time.Second}
	t := &BrowserTransport{
		hello:  hello,
		dialer: dialer,
		proxy:  http.ProxyFromEnvironment,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.plain = &http.Transport{
		Proxy:             t.proxy,
		DialContext:       dialer.DialContext,
		DisableKeepAlives: true,
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *BrowserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.plain.RoundTrip(req)
	}

	conn, err := t.dialTLS(req)
	if err != nil {
		closeRequestBody(req)
		return nil, err
	}

	if conn.ConnectionState().NegotiatedProtocol == http2.NextProtoTLS {
		return t.roundTripH2(req, conn)
	}
	return t.roundTripH1(req, conn)
}

func (t *BrowserTransport) dialTLS(req *http.Request) (*utls.UConn, error) {
	ctx := req.Context()
	host, port := req.URL.Hostname(), req.URL.Port()
	if port == "" {
		port = "443"
	}

	raw, err := t.dial(req, net.JoinHostPort(host, port))
	if err != nil {
		return nil, err
	}

	cfg := &utls.Config{ServerName: host, RootCAs: t.rootCAs}
	conn := utls.UClient(raw, cfg, t.hello)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("tls handshake %s: %w", host, err)
	}
	return conn, nil
}

// dial opens a TCP connection to addr, through a CONNECT tunnel when the
// proxy func returns a proxy for req.
func (t *BrowserTransport) dial(req *http.Request, addr string) (net.Conn, error) {
	var proxyURL *url.URL
	if t.proxy != nil {
		u, err := t.proxy(req)
		if err != nil {
			return nil, fmt.Errorf("resolve proxy: %w", err)
		}
		proxyURL = u
	}

	if proxyURL == nil {
		conn, err := t.dialer.DialContext(req.Context(), "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return conn, nil
	}
	return t.dialConnect(req.Context(), proxyURL, addr)
}

func (t *BrowserTransport) dialConnect(ctx context.Context, proxyURL *url.URL, addr string) (net.Conn, error) {
	if proxyURL.Scheme != "http" {
		return nil, fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}
	proxyAddr := proxyURL.Host
	if proxyURL.Port() == "" {
		proxyAddr = net.JoinHostPort(proxyURL.Hostname(), "80")
	}

	conn, err := t.dialer.DialContext(ctx, "tcp", proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("dial proxy %s: %w", proxyAddr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	connectReq := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}
	if u := proxyURL.User; u != nil {
		password, _ := u.Password()
		token := base64.StdEncoding.EncodeToString([]byte(u.Username() + ":" + password))
		connectReq.Header.Set("Proxy-Authorization", "Basic "+token)
	}
	if err := connectReq.Write(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("write connect: %w", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), connectReq)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read connect response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = conn.Close()
		return nil, fmt.Errorf("proxy connect %s: %s", addr, resp.Status)
	}

	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}

func (t *BrowserTransport) roundTripH2(req *http.Request, conn net.Conn) (*http.Response, error) {
	h2 := &http2.Transport{}
	cc, err := h2.NewClientConn(conn)
	if err != nil {
		_ = conn.Close()
		closeRequestBody(req)
		return nil, fmt.Errorf("http2 client conn: %w", err)
	}

	resp, err := cc.RoundTrip(req)
	if err != nil {
		_ = cc.Close()
		return nil, err
	}
	resp.Body = &connClosingBody{ReadCloser: resp.Body, conn: cc}
	return resp, nil
}

func (t *BrowserTransport) roundTripH1(req *http.Request, conn net.Conn) (*http.Response, error) {
	if deadline, ok := req.Context().Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	out := req.Clone(req.Context())
	out.Close = true
	if err := out.Write(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("write request: %w", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read response: %w", err)
	}
	resp.Body = &connClosingBody{ReadCloser: resp.Body, conn: conn}
	return resp, nil
}

func closeRequestBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

// connClosingBody closes the underlying connection together with the body.
type connClosingBody struct {
	io.ReadCloser
	conn io.Closer
}

func (b *connClosingBody) Close() error {
	err := b.ReadCloser.Close()
	if cerr := b.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
