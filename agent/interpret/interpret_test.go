package interpret

import (
	"testing"

	contractx "github.com/verzel/sdr-agent/agent/contract"
)

func TestInterpretDialoguePassthrough(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{name: "plain text", raw: "Hi! Could you share your email?"},
		{name: "text with braces inside", raw: "we use {json} a lot"},
		{name: "top-level array", raw: `[{"action":"create_lead"}]`},
		{name: "top-level string", raw: `"create_lead"`},
		{name: "top-level number", raw: "42"},
		{name: "malformed json", raw: `{"action":"create_lead",`},
		{name: "action has wrong type", raw: `{"action":5}`},
		{name: "unrecognized action", raw: `{"action":"delete_lead","data":{}}`},
		{name: "object without action", raw: `{"data":{"name":"Sam"}}`},
		{name: "empty string", raw: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Interpret(tc.raw)
			if got.IsTrigger() {
				t.Fatalf("Interpret(%q) returned trigger, want dialogue", tc.raw)
			}
			if got.Dialogue != tc.raw {
				t.Fatalf("Interpret(%q).Dialogue = %q, want raw text unchanged", tc.raw, got.Dialogue)
			}
		})
	}
}

func TestInterpretCreateLeadTrigger(t *testing.T) {
	t.Parallel()

	raw := `{"action":"create_lead","data":{"name":"Sam","email":"sam@x.com","company":"Acme","need":"faster deploys","interest_confirmed":true}}`

	got := Interpret(raw)
	if !got.IsTrigger() {
		t.Fatalf("Interpret() = dialogue %q, want trigger", got.Dialogue)
	}

	want := contractx.Lead{
		Name:              "Sam",
		Email:             "sam@x.com",
		Company:           "Acme",
		Need:              "faster deploys",
		InterestConfirmed: true,
	}
	if got.Trigger.Lead != want {
		t.Fatalf("Trigger.Lead = %+v, want %+v", got.Trigger.Lead, want)
	}
}

func TestInterpretTriggerDefaultsMissingFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{name: "partial data", raw: `{"action":"create_lead","data":{"email":"sam@x.com"}}`},
		{name: "empty data", raw: `{"action":"create_lead","data":{}}`},
		{name: "absent data", raw: `{"action":"create_lead"}`},
		{name: "data wrong shape", raw: `{"action":"create_lead","data":[1,2]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Interpret(tc.raw)
			if !got.IsTrigger() {
				t.Fatalf("Interpret(%q) = dialogue, want trigger", tc.raw)
			}
			lead := got.Trigger.Lead
			if lead.Name != "" || lead.Company != "" || lead.Need != "" {
				t.Fatalf("missing fields not defaulted: %+v", lead)
			}
			if lead.InterestConfirmed {
				t.Fatalf("interest_confirmed should default to false: %+v", lead)
			}
		})
	}
}

func TestInterpretSurroundingWhitespace(t *testing.T) {
	t.Parallel()

	got := Interpret("\n  {\"action\":\"create_lead\",\"data\":{\"name\":\"Sam\"}}  \n")
	if !got.IsTrigger() {
		t.Fatalf("Interpret() = dialogue, want trigger despite whitespace")
	}
	if got.Trigger.Lead.Name != "Sam" {
		t.Fatalf("Trigger.Lead.Name = %q, want Sam", got.Trigger.Lead.Name)
	}
}
