package adapter

import (
	"net/http"

	"llm-bridge/internal/canonical"
)

// Credentials is what an adapter needs to address one vendor: the API
// key and the endpoint base (overridable for tests and proxies).
type Credentials struct {
	APIKey  string
	BaseURL string
}

// OutboundRequest is a fully built vendor call: URL, headers, and the
// marshaled body. The dispatcher performs the actual network round trip.
type OutboundRequest struct {
	URL    string
	Header http.Header
	Body   []byte
}

// Adapter translates between the canonical schema and one vendor's wire
// format. Both operations are pure: no network, no shared state, safe
// for concurrent use.
type Adapter interface {
	Vendor() canonical.Vendor

	// BuildRequest maps a canonical request into the vendor call shape.
	BuildRequest(req canonical.Request, creds Credentials) (OutboundRequest, error)

	// ParseResponse maps a vendor response body into the canonical
	// shape. A non-2xx status yields an upstream-rejected error without
	// the body being parsed as a success payload; a 2xx body missing
	// required content yields an empty-response error.
	ParseResponse(status int, body []byte) (canonical.Response, error)
}
