// Package proxy relays approved requests to the upstream inference
// endpoint and classifies transport failures.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ErrUnreachable marks forwarding failures at the transport level
// (connection refused, timeout, unreadable response). These become a
// gateway error, never a relayed upstream status.
var ErrUnreachable = errors.New("upstream unreachable")

// defaultAllowHeaders is the pass-through allow-list. Only these caller
// headers reach the upstream; everything else (cookies, hop-by-hop,
// gateway-internal headers) is dropped. The list is deliberate: the
// caller's Authorization credential is the upstream's concern, ours is
// not to leak anything beyond it.
var defaultAllowHeaders = []string{
	"Authorization",
	"Content-Type",
	"Accept",
	"X-Request-ID",
}

// UpstreamResult is a well-formed upstream response, success or not.
type UpstreamResult struct {
	Status int
	Header http.Header
	Body   []byte
}

type Forwarder struct {
	client  *http.Client
	url     string
	timeout time.Duration
	allow   []string
}

func NewHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// New builds a forwarder for one upstream URL. extraHeaders extends the
// built-in pass-through allow-list.
func New(url string, timeout time.Duration, extraHeaders []string) *Forwarder {
	allow := make([]string, 0, len(defaultAllowHeaders)+len(extraHeaders))
	allow = append(allow, defaultAllowHeaders...)
	allow = append(allow, extraHeaders...)
	return &Forwarder{
		client:  &http.Client{Transport: NewHTTPTransport()},
		url:     url,
		timeout: timeout,
		allow:   allow,
	}
}

// Forward POSTs body verbatim to the upstream with the allow-listed
// caller headers, one attempt, bounded by the configured timeout and the
// caller's ctx. A well-formed response of any status comes back as an
// UpstreamResult; transport failures come back as ErrUnreachable.
func (f *Forwarder) Forward(ctx context.Context, body []byte, callerHeader http.Header) (*UpstreamResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	for _, name := range f.allow {
		if v := callerHeader.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	return &UpstreamResult{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   b,
	}, nil
}
