package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc, timeoutSeconds int) (*GatewayClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewGatewayClient(config.GatewayConfig{
		Endpoint:       srv.URL,
		APIKey:         "test-key",
		Model:          "test-model",
		MaxTokens:      65536,
		TimeoutSeconds: timeoutSeconds,
	}, zap.NewNop())
	return client, srv
}

func TestGatewayCompleteSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	client, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Hello, world."}},
			},
		})
	}, 5)

	out, err := client.Complete(context.Background(), "be precise", []GatewayMessage{
		{Role: "user", Content: "hello world"},
	}, 0.2)

	require.NoError(t, err)
	assert.Equal(t, "Hello, world.", out)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])
	assert.Equal(t, 0.2, gotBody["temperature"])
	assert.Equal(t, float64(65536), gotBody["max_tokens"])

	msgs := gotBody["messages"].([]interface{})
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]interface{})
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "be precise", first["content"])
}

func TestGatewayCompleteEmptyResult(t *testing.T) {
	client, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "   "}},
			},
		})
	}, 5)

	_, err := client.Complete(context.Background(), "", []GatewayMessage{{Role: "user", Content: "hi"}}, 0.5)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestGatewayCompleteNoChoices(t *testing.T) {
	client, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}, 5)

	_, err := client.Complete(context.Background(), "", []GatewayMessage{{Role: "user", Content: "hi"}}, 0.5)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestGatewayCompleteStructuredError(t *testing.T) {
	client, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limit exceeded"},
		})
	}, 5)

	_, err := client.Complete(context.Background(), "", []GatewayMessage{{Role: "user", Content: "hi"}}, 0.5)
	require.Error(t, err)
	assert.Equal(t, "rate limit exceeded", err.Error())
}

func TestGatewayCompleteUnparseableError(t *testing.T) {
	client, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}, 5)

	_, err := client.Complete(context.Background(), "", []GatewayMessage{{Role: "user", Content: "hi"}}, 0.5)
	require.Error(t, err)
	assert.Equal(t, "gateway error 502", err.Error())
}

func TestGatewayCompleteTimeout(t *testing.T) {
	client, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
	}, 1)

	start := time.Now()
	_, err := client.Complete(context.Background(), "", []GatewayMessage{{Role: "user", Content: "hi"}}, 0.5)
	assert.ErrorIs(t, err, ErrGatewayTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestNormalizeGatewayEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.example.com", normalizeGatewayEndpoint("https://api.example.com/v1/"))
	assert.Equal(t, "https://api.example.com", normalizeGatewayEndpoint("https://api.example.com"))
	assert.Equal(t, "https://api.example.com/gemini", normalizeGatewayEndpoint("https://api.example.com/gemini/v1"))
}
