package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{name: "zero", elapsed: 0, want: "0m ago"},
		{name: "seconds round down", elapsed: 59 * time.Second, want: "0m ago"},
		{name: "minutes", elapsed: 45 * time.Minute, want: "45m ago"},
		{name: "hour and a half", elapsed: 90 * time.Minute, want: "1h 30m ago"},
		{name: "just under a day", elapsed: 23*time.Hour + 59*time.Minute, want: "23h 59m ago"},
		{name: "one day singular", elapsed: 24 * time.Hour, want: "1 day ago"},
		{name: "fifty hours", elapsed: 50 * time.Hour, want: "2 days ago"},
		{name: "clock skew clamps", elapsed: -time.Hour, want: "0m ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatElapsed(base, true, base.Add(tt.elapsed)))
		})
	}
}

func TestFormatElapsedNever(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Never", FormatElapsed(time.Time{}, false, base))
}
