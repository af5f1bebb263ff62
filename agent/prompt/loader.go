package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/sdr.txt
var sdrRaw string

// SystemPrompt returns the trimmed SDR persona prompt. The embed is
// compile-time, so this is safe to call concurrently.
func SystemPrompt() string {
	return strings.TrimSpace(sdrRaw)
}
