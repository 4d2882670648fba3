// Package network performs OAuth 1.0a signed requests against the platform API.
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/bitrise-io/go-mediaupload/credential"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/dghubble/oauth1"
	"github.com/hashicorp/go-retryablehttp"
)

// Executor performs one signed request and returns the raw response body.
// Implementations must not retry: every call hits the remote service at most once.
type Executor interface {
	Do(ctx context.Context, req Request, cred credential.Credential) ([]byte, error)
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// SignedClient ...
type SignedClient struct {
	baseClient *http.Client
	logger     log.Logger
}

// NewSignedClient creates an Executor. `baseClient` can be nil, in which case DefaultHTTPClient is used.
func NewSignedClient(baseClient *http.Client, logger log.Logger) *SignedClient {
	if baseClient == nil {
		baseClient = DefaultHTTPClient()
	}
	return &SignedClient{
		baseClient: baseClient,
		logger:     logger,
	}
}

// DefaultHTTPClient creates an HTTP client for media uploads.
func DefaultHTTPClient() *http.Client {
	return &http.Client{
		// No timeout - phase deadlines are handled via context
		Timeout: 0,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxConnsPerHost:     4,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			Proxy:               http.ProxyFromEnvironment,
		},
	}
}

// Do ...
func (c *SignedClient) Do(ctx context.Context, req Request, cred credential.Credential) ([]byte, error) {
	target, body, contentType, err := req.encode()
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", req.Command, err)
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, rawBody)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", req.Command, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	dump, err := httputil.DumpRequest(httpReq.Request, false)
	if err != nil {
		c.logger.Warnf("error while dumping request: %s", err)
	}
	c.logger.Debugf("%s request dump: %s", req.Command, string(dump))

	resp, err := c.clientFor(ctx, cred).Do(httpReq)
	if resp != nil {
		defer func(body io.ReadCloser) {
			if err := body.Close(); err != nil {
				c.logger.Warnf("close response body: %s", err)
			}
		}(resp.Body)
	}
	// The passthrough error handler can hand back the last response together with the error.
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, target, err)
	}

	dump, err = httputil.DumpResponse(resp, true)
	if err != nil {
		c.logger.Warnf("error while dumping response: %s", err)
	}
	c.logger.Debugf("%s response dump: %s", req.Command, string(dump))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.Command, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

// clientFor builds a non-retrying client whose transport signs every request with the credential.
func (c *SignedClient) clientFor(ctx context.Context, cred credential.Credential) *retryablehttp.Client {
	config := oauth1.NewConfig(cred.ConsumerKey.Value(), cred.ConsumerSecret.Value())
	token := oauth1.NewToken(cred.AccessToken.Value(), cred.AccessSecret.Value())

	client := retryhttp.NewClient(c.logger)
	client.RetryMax = 0
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient = config.Client(context.WithValue(ctx, oauth1.HTTPClient, c.baseClient), token)

	return client
}
