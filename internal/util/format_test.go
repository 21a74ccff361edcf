package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected string
	}{
		{
			name:     "zero",
			input:    0,
			expected: "0",
		},
		{
			name:     "hundreds",
			input:    999,
			expected: "999",
		},
		{
			name:     "exactly 1000",
			input:    1000,
			expected: "1.0K",
		},
		{
			name:     "thousands",
			input:    1500,
			expected: "1.5K",
		},
		{
			name:     "millions",
			input:    2500000,
			expected: "2.5M",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCount(tt.input))
		})
	}
}

func TestFormatCycles(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{
			name:     "small count stays raw",
			input:    999,
			expected: "999 cyc",
		},
		{
			name:     "thousands",
			input:    1500,
			expected: "1.500K cyc",
		},
		{
			name:     "millions",
			input:    2500000,
			expected: "2.500M cyc",
		},
		{
			name:     "billions",
			input:    1.2e9,
			expected: "1.200G cyc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCycles(tt.input))
		})
	}
}

func TestFormatNanoseconds(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{
			name:     "sub-microsecond",
			input:    500,
			expected: "500 ns",
		},
		{
			name:     "microseconds",
			input:    1500,
			expected: "1.500 us",
		},
		{
			name:     "milliseconds",
			input:    2.5e6,
			expected: "2.500 ms",
		},
		{
			name:     "seconds",
			input:    3e9,
			expected: "3.000 s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatNanoseconds(tt.input))
		})
	}
}

func TestFormatFrequency(t *testing.T) {
	assert.Equal(t, "1.202 GHz", FormatFrequency(1.202))
	assert.Equal(t, "0.000 GHz", FormatFrequency(0))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5m", FormatDuration(5*time.Minute))
	assert.Equal(t, "2h 30m", FormatDuration(2*time.Hour+30*time.Minute))
}
