package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-autopilot/internal/types"
)

func TestDetectSource(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want types.JobSource
	}{
		{"greenhouse board", "https://boards.greenhouse.io/acme/jobs/123", types.SourceGreenhouse},
		{"greenhouse api", "https://boards-api.greenhouse.io/v1/boards/acme/jobs", types.SourceGreenhouse},
		{"lever board", "https://jobs.lever.co/acme/abc-def", types.SourceLever},
		{"unknown host", "https://careers.example.com/jobs/42", types.SourceWebBoard},
		{"invalid url", "://not-a-url", types.SourceWebBoard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSource(tt.url))
		})
	}
}
