package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty_qa/pkg"
)

func TestHTTPGatewaySearch(t *testing.T) {
	var received searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, sonic.ConfigDefault.NewDecoder(r.Body).Decode(&received))
		resp := searchResponse{Documents: []pkg.RetrievedDocument{
			{Content: "Transfer partners overview", Metadata: map[string]any{"title": "partners"}, Score: 0.91},
			{Content: "Award chart basics", Metadata: map[string]any{"title": "charts"}, Score: 0.73},
		}}
		body, err := sonic.Marshal(resp)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, 5*time.Second)
	docs, err := gateway.Search(context.Background(), "how do transfers work", 3, 0.5)
	require.NoError(t, err)

	assert.Equal(t, "how do transfers work", received.Query)
	assert.Equal(t, 3, received.K)
	assert.Equal(t, 0.5, received.ScoreThreshold)

	require.Len(t, docs, 2)
	assert.Equal(t, "Transfer partners overview", docs[0].Content)
	assert.Equal(t, 0.91, docs[0].Score)
}

func TestHTTPGatewaySearchNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, 5*time.Second)
	_, err := gateway.Search(context.Background(), "q", 3, 0.5)
	assert.ErrorIs(t, err, pkg.ErrRetrievalService)
}

type flakyGateway struct {
	failures int
	calls    int
}

func (f *flakyGateway) Search(_ context.Context, _ string, _ int, _ float64) ([]pkg.RetrievedDocument, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, pkg.ErrRetrievalService
	}
	return []pkg.RetrievedDocument{{Content: "doc", Score: 0.8}}, nil
}

func TestWithRetryRecoversFromSingleFailure(t *testing.T) {
	inner := &flakyGateway{failures: 1}
	docs, err := WithRetry(inner).Search(context.Background(), "q", 3, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Len(t, docs, 1)
}

func TestWithRetryGivesUpAfterOneRetry(t *testing.T) {
	inner := &flakyGateway{failures: 5}
	_, err := WithRetry(inner).Search(context.Background(), "q", 3, 0.5)
	assert.ErrorIs(t, err, pkg.ErrRetrievalService)
	assert.Equal(t, 2, inner.calls)
}

func TestBuildContextPreservesGatewayOrder(t *testing.T) {
	docs := []pkg.RetrievedDocument{
		{Content: "most relevant", Score: 0.9},
		{Content: "second", Score: 0.7},
		{Content: "third", Score: 0.55},
	}
	assert.Equal(t, "most relevant\nsecond\nthird", BuildContext(docs))
}

func TestBuildContextEmptyResultSet(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil))
}
