package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintOptionsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   PrintOptions
		want PrintOptions
	}{
		{
			name: "zero values get defaults",
			in:   PrintOptions{},
			want: PrintOptions{Copies: 1, Threshold: 128},
		},
		{
			name: "negative geometry is treated as unset",
			in:   PrintOptions{Width: -1, Height: 50, Copies: 2, Threshold: 64},
			want: PrintOptions{Width: 0, Height: 50, Copies: 2, Threshold: 64},
		},
		{
			name: "both dimensions negative",
			in:   PrintOptions{Width: -100, Height: -3, Copies: 1, Threshold: 128},
			want: PrintOptions{Width: 0, Height: 0, Copies: 1, Threshold: 128},
		},
		{
			name: "out of range threshold resets",
			in:   PrintOptions{Copies: 1, Threshold: 300},
			want: PrintOptions{Copies: 1, Threshold: 128},
		},
		{
			name: "valid values untouched",
			in:   PrintOptions{Width: 40, Height: 20, Copies: 3, Threshold: 200},
			want: PrintOptions{Width: 40, Height: 20, Copies: 3, Threshold: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Normalize()
			assert.Equal(t, tt.want, tt.in)
		})
	}
}

func TestPrintOptionsIsSilent(t *testing.T) {
	var opts PrintOptions
	require.NoError(t, json.Unmarshal([]byte(`{}`), &opts))
	assert.True(t, opts.IsSilent())

	require.NoError(t, json.Unmarshal([]byte(`{"silent":true}`), &opts))
	assert.True(t, opts.IsSilent())

	require.NoError(t, json.Unmarshal([]byte(`{"silent":false}`), &opts))
	assert.False(t, opts.IsSilent())
}

func TestPrintOptionsFallback(t *testing.T) {
	var opts PrintOptions
	assert.True(t, opts.Fallback(true))
	assert.False(t, opts.Fallback(false))

	opts.FallbackToDefault = boolPtr(false)
	assert.False(t, opts.Fallback(true))

	opts.FallbackToDefault = boolPtr(true)
	assert.True(t, opts.Fallback(false))
}
