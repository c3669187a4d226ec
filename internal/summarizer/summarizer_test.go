package summarizer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"Missing Key", errors.New("API_KEY_INVALID: API key not valid"), ErrConfiguration},
		{"Quota", errors.New("Error 429, Resource has been exhausted (e.g. check quota)"), ErrQuota},
		{"Rate", errors.New("rate limit reached"), ErrQuota},
		{"Other", errors.New("connection reset by peer"), ErrGeneration},
		{"Already Classified", ErrQuota, ErrQuota},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.err), tt.want)
		})
	}
	assert.NoError(t, Classify(nil))
}

func TestNew_RejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.Config{AIProvider: "llama"})
	assert.Error(t, err)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "gemini-2.0-flash")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  A short summary.  "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	g := Instrument(NewOpenAI("test-key", srv.URL, "gpt-4o-mini"))
	out, err := g.Generate(context.Background(), "Summarize")
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", out)
	assert.Equal(t, ProviderOpenAI, g.Provider())
}

func TestOpenAI_Generate_QuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	g := Instrument(NewOpenAI("test-key", srv.URL, "gpt-4o-mini"))
	_, err := g.Generate(context.Background(), "Summarize")
	assert.ErrorIs(t, err, ErrQuota)
}

func TestOpenAI_Generate_MissingKey(t *testing.T) {
	_, err := NewOpenAI("", "", "gpt-4o-mini").Generate(context.Background(), "Summarize")
	assert.ErrorIs(t, err, ErrConfiguration)
}
