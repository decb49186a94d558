package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty_qa/pkg"
)

type fakeAsker struct {
	answer string
	err    error
	userID string
	query  string
}

func (f *fakeAsker) Handle(_ context.Context, userID, query string) (string, error) {
	f.userID = userID
	f.query = query
	return f.answer, f.err
}

func doAsk(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAskReturnsAnswer(t *testing.T) {
	asker := &fakeAsker{answer: "Transfer them to Hyatt."}
	handler := New(asker, nil).Handler()

	rec := doAsk(t, handler, `{"query":"Best use of points?","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp askResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Transfer them to Hyatt.", resp.Response)
	assert.Equal(t, "u1", asker.userID)
	assert.Equal(t, "Best use of points?", asker.query)
}

func TestAskRejectsMissingFields(t *testing.T) {
	handler := New(&fakeAsker{}, nil).Handler()

	rec := doAsk(t, handler, `{"query":"no user id"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doAsk(t, handler, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskMapsUnknownIntentTo422(t *testing.T) {
	asker := &fakeAsker{err: &pkg.UnknownIntentError{Label: "weather"}}
	handler := New(asker, nil).Handler()

	rec := doAsk(t, handler, `{"query":"Will it rain?","user_id":"u1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "weather")
}

func TestAskMapsUpstreamFailuresTo502(t *testing.T) {
	for _, err := range []error{pkg.ErrRetrievalService, pkg.ErrGenerationService} {
		asker := &fakeAsker{err: err}
		handler := New(asker, nil).Handler()

		rec := doAsk(t, handler, `{"query":"q","user_id":"u1"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	}
}

type fakeHealth struct{ err error }

func (f *fakeHealth) HealthCheck(_ context.Context) error { return f.err }

func TestHealthz(t *testing.T) {
	handler := New(&fakeAsker{}, &fakeHealth{}).Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	handler = New(&fakeAsker{}, &fakeHealth{err: context.DeadlineExceeded}).Handler()
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
