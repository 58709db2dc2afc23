package sources

import (
	"net/url"
	"strings"

	"github.com/jonathan/job-autopilot/internal/types"
)

// DetectSource identifies the job board a posting URL belongs to.
// Unrecognized hosts map to the generic web board source.
func DetectSource(urlStr string) types.JobSource {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return types.SourceWebBoard
	}

	host := strings.ToLower(parsed.Host)

	if strings.Contains(host, "greenhouse.io") {
		return types.SourceGreenhouse
	}

	if strings.Contains(host, "lever.co") {
		return types.SourceLever
	}

	return types.SourceWebBoard
}
