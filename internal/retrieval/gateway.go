// Package retrieval talks to the external nearest-neighbor document search
// service and adapts its results into prompt context.
package retrieval

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"

	"loyalty_qa/pkg"
)

// Gateway is the similarity search contract. Results come back best-first;
// that ordering is the service's promise and is never re-sorted here.
type Gateway interface {
	Search(ctx context.Context, query string, k int, scoreThreshold float64) ([]pkg.RetrievedDocument, error)
}

// HTTPGateway calls the search service over HTTP.
type HTTPGateway struct {
	endpoint string
	client   *http.Client
}

type searchRequest struct {
	Query          string  `json:"query"`
	K              int     `json:"k"`
	ScoreThreshold float64 `json:"score_threshold"`
}

type searchResponse struct {
	Documents []pkg.RetrievedDocument `json:"documents"`
}

// NewHTTPGateway creates a gateway against the given search endpoint.
func NewHTTPGateway(endpoint string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) Search(ctx context.Context, query string, k int, scoreThreshold float64) ([]pkg.RetrievedDocument, error) {
	body, err := sonic.Marshal(searchRequest{
		Query:          query,
		K:              k,
		ScoreThreshold: scoreThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding search request: %v", pkg.ErrRetrievalService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building search request: %v", pkg.ErrRetrievalService, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrRetrievalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search returned status %d", pkg.ErrRetrievalService, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading search response: %v", pkg.ErrRetrievalService, err)
	}

	var parsed searchResponse
	if err := sonic.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %v", pkg.ErrRetrievalService, err)
	}

	return parsed.Documents, nil
}

// retryGateway retries a failed search once with exponential backoff before
// giving up.
type retryGateway struct {
	inner Gateway
}

// WithRetry hardens a gateway with the retry-once policy.
func WithRetry(inner Gateway) Gateway {
	return &retryGateway{inner: inner}
}

func (g *retryGateway) Search(ctx context.Context, query string, k int, scoreThreshold float64) ([]pkg.RetrievedDocument, error) {
	var docs []pkg.RetrievedDocument

	operation := func() error {
		found, err := g.inner.Search(ctx, query, k, scoreThreshold)
		if err != nil {
			return err
		}
		docs = found
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return docs, nil
}

// BuildContext concatenates document contents in the order the gateway
// returned them. An empty result set yields an empty context, not an error.
func BuildContext(docs []pkg.RetrievedDocument) string {
	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}
	return strings.Join(contents, "\n")
}
