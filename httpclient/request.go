package httpclient

// Request describes an outbound HTTP request to an execution node.
type Request struct {
	// Method is the HTTP method. JSON-RPC traffic is always POST.
	Method string
	// Path is appended to the client's BaseURL. Can be a full URL if BaseURL is empty.
	Path string
	// Headers are request-specific headers in the single-value map form
	// (merged over client defaults).
	Headers map[string]string
	// Body is the raw request body.
	Body []byte
	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig
}

// Response is the result of an HTTP request.
//
// Unlike a general-purpose client, upstream status codes are never
// converted into errors here: the proxy forwards them to its caller
// verbatim. Only transport-level failures surface as errors.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers in the single-value map form.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
