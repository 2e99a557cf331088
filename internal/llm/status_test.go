package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		status    int
		kind      domain.StatusKind
		message   string
		retryable bool
	}{
		{400, domain.StatusKindRequest, "400 Bad Request (Check your request format)", false},
		{401, domain.StatusKindAuth, "401 Unauthorized (Check your API Key)", false},
		{403, domain.StatusKindAuth, "403 Forbidden (API Key invalid or location blocked)", false},
		{404, domain.StatusKindRequest, "404 Not Found (Model not supported by this provider)", false},
		{429, domain.StatusKindQuota, "429 Too Many Requests (Rate limit exceeded)", true},
		{500, domain.StatusKindUpstream, "500 Internal Server Error (Provider error)", true},
		{502, domain.StatusKindUpstream, "502 Bad Gateway (Provider invalid response)", true},
		{503, domain.StatusKindUpstream, "503 Service Unavailable (Provider overloaded)", true},
		{504, domain.StatusKindUpstream, "504 Gateway Timeout (Provider stopped waiting)", true},
		{524, domain.StatusKindUpstream, "524 Provider Timeout (Analysis took too long, try a faster provider)", true},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			d := MapStatus(tt.status, "ignored")
			assert.Equal(t, tt.status, d.Status)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.message, d.Message)
			assert.Equal(t, tt.retryable, d.Retryable())
		})
	}
}

func TestMapStatusFallback(t *testing.T) {
	d := MapStatus(418, "I'm a teapot")
	assert.Equal(t, domain.StatusKindUnknown, d.Kind)
	assert.Equal(t, "418 I'm a teapot", d.Message)
	assert.False(t, d.Retryable())

	// missing status text falls back to the standard one
	assert.Equal(t, "418 I'm a teapot", MapStatus(418, "").Message)
	assert.Contains(t, MapStatus(599, "").Message, "599")
}
