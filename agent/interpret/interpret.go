// Package interpret classifies a raw model reply as either ordinary dialogue
// to relay verbatim or a structured action trigger.
package interpret

import (
	"encoding/json"
	"strings"

	contractx "github.com/verzel/sdr-agent/agent/contract"
)

// Result is a tagged union: exactly one of Dialogue or Trigger is set.
type Result struct {
	Dialogue string
	Trigger  *contractx.ActionTrigger
}

func (r Result) IsTrigger() bool {
	return r.Trigger != nil
}

type envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// Interpret parses raw model output. A failed JSON parse is the expected
// outcome for most turns, not an error: the text is forwarded as dialogue
// unchanged. A parsed object with an unrecognized action is forwarded the
// same way (fail open) so an internal mismatch never reaches the end user as
// an error. Missing sub-fields of a recognized trigger default to zero
// values; completeness is the qualification workflow's concern.
func Interpret(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return Result{Dialogue: raw}
	}

	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return Result{Dialogue: raw}
	}
	if env.Action != contractx.ActionCreateLead {
		return Result{Dialogue: raw}
	}

	var lead contractx.Lead
	if len(env.Data) > 0 {
		// Partial or malformed data is still a valid trigger; absent
		// sub-fields stay at their zero values.
		_ = json.Unmarshal(env.Data, &lead)
	}

	return Result{Trigger: &contractx.ActionTrigger{
		Action: contractx.ActionCreateLead,
		Lead:   lead,
	}}
}
