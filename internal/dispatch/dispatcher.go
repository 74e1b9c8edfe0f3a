package dispatch

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"

	"llm-bridge/internal/adapter"
	"llm-bridge/internal/adapter/anthropic"
	"llm-bridge/internal/adapter/gemini"
	"llm-bridge/internal/adapter/openai"
	"llm-bridge/internal/canonical"
)

const maxResponseBytes = 20 << 20

// Doer abstracts the HTTP client so dispatch logic is testable without
// a live network. The implementation must be safe for concurrent use.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CredentialSource resolves per-vendor credentials at call time. The
// second return is false when no credential is configured.
type CredentialSource interface {
	Credentials(v canonical.Vendor) (adapter.Credentials, bool)
}

// Dispatcher is the single entry point: it selects the adapter for the
// request's vendor, performs exactly one outbound call, and funnels
// every failure into the canonical error taxonomy. Stateless across
// calls; concurrent Sends share only the client's connection pool.
type Dispatcher struct {
	client   Doer
	creds    CredentialSource
	adapters map[canonical.Vendor]adapter.Adapter
}

func New(client Doer, creds CredentialSource) *Dispatcher {
	if client == nil {
		client = DefaultClient()
	}
	d := &Dispatcher{
		client:   client,
		creds:    creds,
		adapters: make(map[canonical.Vendor]adapter.Adapter, 3),
	}
	for _, a := range []adapter.Adapter{openai.New(), anthropic.New(), gemini.New()} {
		d.adapters[a.Vendor()] = a
	}
	return d
}

// DefaultClient returns the tuned outbound HTTP client. No client-side
// timeout: the caller's context bounds the call.
func DefaultClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        32,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// Send executes one canonical request against its vendor. No retries,
// no fan-out; cancellation of ctx aborts the outbound call and surfaces
// as a transport failure.
func (d *Dispatcher) Send(ctx context.Context, req canonical.Request) (canonical.Response, error) {
	a, ok := d.adapters[req.Vendor]
	if !ok {
		return canonical.Response{}, canonical.ErrUnsupportedVendor(req.Vendor)
	}

	creds, ok := d.creds.Credentials(req.Vendor)
	if !ok || strings.TrimSpace(creds.APIKey) == "" {
		return canonical.Response{}, canonical.ErrConfigurationMissing(req.Vendor)
	}

	outbound, err := a.BuildRequest(req, creds)
	if err != nil {
		return canonical.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, outbound.URL, bytes.NewReader(outbound.Body))
	if err != nil {
		return canonical.Response{}, canonical.ErrTransportFailure(err)
	}
	httpReq.Header = outbound.Header

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return canonical.Response{}, canonical.ErrTransportFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return canonical.Response{}, canonical.ErrTransportFailure(err)
	}

	return a.ParseResponse(resp.StatusCode, body)
}
