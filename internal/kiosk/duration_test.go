package kiosk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{"zero", 0, "0 hours 0 minutes 0 seconds"},
		{"singular units", 3661000, "1 hour 1 minute 1 second"},
		{"ten seconds", 10000, "0 hours 0 minutes 10 seconds"},
		{"plural units", 7322000, "2 hours 2 minutes 2 seconds"},
		{"sub-second truncates", 999, "0 hours 0 minutes 0 seconds"},
		{"negative clamps to zero", -5000, "0 hours 0 minutes 0 seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.ms))
		})
	}
}
