package azure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-relay-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(url string) *AzureProvider {
	return NewAzureProvider("azure", url, "secret-key", "gpt-4o", 5*time.Second, nil)
}

func TestComplete_SendsHeadersAndBody(t *testing.T) {
	var (
		gotHeaders http.Header
		gotBody    chatRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"model":"gpt-4o-2024","choices":[{"message":{"role":"assistant","content":"Hello!"}}],"usage":{"total_tokens":7}}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	out, err := p.Complete(context.Background(), []llm.Message{
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hey"},
		{Role: "user", Content: "How are you?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello!", out.Content)
	assert.Equal(t, "gpt-4o-2024", out.Model)
	assert.Equal(t, float64(7), out.Usage["total_tokens"])

	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "Bearer secret-key", gotHeaders.Get("Authorization"))
	assert.Equal(t, "secret-key", gotHeaders.Get("api-key"))

	assert.Equal(t, "gpt-4o", gotBody.Model)
	require.Len(t, gotBody.Messages, 3)
	assert.Equal(t, chatMessage{Role: "assistant", Content: "Hey"}, gotBody.Messages[1])
	assert.Nil(t, gotBody.Temperature)
}

func TestComplete_OptionsOverrideModel(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	out, err := p.Complete(context.Background(),
		[]llm.Message{{Role: "user", Content: "ping"}},
		llm.WithModel("gpt-4o-mini"), llm.WithTemperature(0.2), llm.WithMaxTokens(64),
	)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.Equal(t, 0.2, gotBody["temperature"])
	assert.Equal(t, float64(64), gotBody["max_tokens"])
	// Response without a model echoes the requested one.
	assert.Equal(t, "gpt-4o-mini", out.Model)
	assert.Nil(t, out.Usage)
}

func TestComplete_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		noChoices  bool
	}{
		{name: "empty choices", status: http.StatusOK, body: `{"choices":[]}`, wantStatus: http.StatusOK, noChoices: true},
		{name: "absent choices", status: http.StatusOK, body: `{"id":"x"}`, wantStatus: http.StatusOK, noChoices: true},
		{name: "non-2xx status", status: http.StatusUnauthorized, body: `{"error":"bad key"}`, wantStatus: http.StatusUnauthorized},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, wantStatus: http.StatusInternalServerError},
		{name: "malformed body", status: http.StatusOK, body: `{not json`, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out, err := newTestProvider(srv.URL).Complete(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
			require.Error(t, err)
			assert.Nil(t, out)

			var perr *llm.ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "azure", perr.Provider)
			assert.Equal(t, tt.noChoices, errors.Is(err, llm.ErrNoChoices))
			assert.Equal(t, tt.wantStatus, perr.StatusCode)
		})
	}
}

func TestComplete_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestProvider(url).Complete(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)

	var perr *llm.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Zero(t, perr.StatusCode)
	assert.False(t, errors.Is(err, llm.ErrNoChoices))
}

func TestComplete_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewAzureProvider("azure", srv.URL, "k", "gpt-4o", 50*time.Millisecond, nil)
	_, err := p.Complete(context.Background(), []llm.Message{{Role: "user", Content: "slow"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "éé", truncate("ééé", 2))
}
