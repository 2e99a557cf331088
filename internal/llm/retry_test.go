package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestRetry(t *testing.T) {
	overloaded := domain.TransportError(MapStatus(503, ""), "overloaded")
	badRequest := domain.TransportError(MapStatus(400, ""), "bad")

	tests := []struct {
		name         string
		errs         []error
		wantAttempts int
		wantErr      error
	}{
		{name: "success first try", errs: []error{nil}, wantAttempts: 1},
		{name: "recovers after upstream errors", errs: []error{overloaded, overloaded, nil}, wantAttempts: 3},
		{name: "gives up after max attempts", errs: []error{overloaded, overloaded, overloaded, nil}, wantAttempts: 3, wantErr: overloaded},
		{name: "request errors are not retried", errs: []error{badRequest, nil}, wantAttempts: 1, wantErr: badRequest},
		{name: "parse errors are not retried", errs: []error{domain.ParseError("bad json", nil), nil}, wantAttempts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Retry(context.Background(), fastRetry(), nil, func(ctx context.Context) error {
				e := tt.errs[attempts]
				attempts++
				return e
			})
			assert.Equal(t, tt.wantAttempts, attempts)
			if tt.wantErr != nil {
				assert.Same(t, tt.wantErr, err)
			} else if tt.errs[tt.wantAttempts-1] == nil {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Retry(ctx, RetryConfig{MaxAttempts: 10, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, nil, func(ctx context.Context) error {
		attempts++
		cancel()
		return domain.TransportError(MapStatus(429, ""), "")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, domain.IsType(err, domain.ErrorTypeTransport))
}
