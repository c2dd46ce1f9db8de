package exchange

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"rate limited", NewError(RateLimited, "KRAKEN", "trades", base), RateLimited},
		{"transient wrapped", fmt.Errorf("iteration: %w", NewError(Transient, "KRAKEN", "trades", base)), Transient},
		{"fatal", NewError(Fatal, "KRAKEN", "trades", base), Fatal},
		{"plain error", base, Fatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestFetchError(t *testing.T) {
	base := errors.New("connection reset")
	err := NewError(Transient, "KRAKEN", "trades", base)

	assert.Equal(t, "KRAKEN trades (transient): connection reset", err.Error())
	assert.ErrorIs(t, err, base)
	assert.True(t, err.IsRetryable())
	assert.False(t, NewError(Fatal, "KRAKEN", "trades", base).IsRetryable())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "rate_limited", RateLimited.String())
	assert.Equal(t, "transient", Transient.String())
	assert.Equal(t, "fatal", Fatal.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
