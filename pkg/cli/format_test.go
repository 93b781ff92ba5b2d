package cli

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0ms"},
		{time.Millisecond, "1ms"},
		{800 * time.Millisecond, "800ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1.0s"},
		{1500 * time.Millisecond, "1.5s"},
		{59 * time.Second, "59.0s"},
		{time.Minute, "1m0.0s"},
		{90 * time.Second, "1m30.0s"},
		{125500 * time.Millisecond, "2m5.5s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00.000"},
		{750 * time.Millisecond, "0:00.750"},
		{61500 * time.Millisecond, "1:01.500"},
		{10*time.Minute + 5*time.Second, "10:05.000"},
	}
	for _, tt := range tests {
		if got := FormatOffset(tt.d); got != tt.want {
			t.Errorf("FormatOffset(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
