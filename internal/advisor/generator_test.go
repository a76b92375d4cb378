package advisor

import (
	"strings"
	"testing"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
		want    string
	}{
		{
			name: "plain json",
			text: `{"explanation": "Risk remains low.", "disclaimers": "Model output."}`,
			want: "Risk remains low.",
		},
		{
			name: "code fenced",
			text: "```json\n{\"explanation\": \"Risk is rising.\"}\n```",
			want: "Risk is rising.",
		},
		{
			name: "prose wrapped",
			text: `Here is the result: {"explanation": "Elevated risk.", "actions": ["Pre-position supplies"]} Hope that helps!`,
			want: "Elevated risk.",
		},
		{
			name:    "missing explanation",
			text:    `{"disclaimers": "only this"}`,
			wantErr: true,
		},
		{
			name:    "no json at all",
			text:    "I cannot produce JSON today.",
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "   ",
			wantErr: true,
		},
		{
			name:    "malformed json",
			text:    `{"explanation": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePayload(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.Explanation != tt.want {
				t.Errorf("expected explanation %q, got %q", tt.want, got.Explanation)
			}
		})
	}
}

func TestParsePayloadActions(t *testing.T) {
	got, err := parsePayload(`{"explanation": "High risk.", "actions": ["Scale cash transfers", "Alert county teams"], "disclaimers": "Uncertain."}`)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %v", got.Actions)
	}
	if got.Disclaimers != "Uncertain." {
		t.Errorf("unexpected disclaimers: %q", got.Disclaimers)
	}
}

func TestParsePayloadMalformedJSONWithBraces(t *testing.T) {
	if _, err := parsePayload(`{"explanation": oops}`); err == nil {
		t.Fatal("expected error for unquoted value")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New(DefaultModel, DefaultTemperature, DefaultMaxTokens); err == nil {
		t.Fatal("expected error without API key")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	g, err := New("", DefaultTemperature, DefaultMaxTokens)
	if err != nil {
		t.Fatal(err)
	}
	if g.model != DefaultModel {
		t.Errorf("empty model should default to %s, got %s", DefaultModel, g.model)
	}
	if ready, _ := g.Ready(); !ready {
		t.Error("constructed generator should report ready")
	}
}

func TestBuildPromptExplain(t *testing.T) {
	ndvi := -0.5
	f := testFacts()
	f.NDVIAnomaly = &ndvi

	system, user := buildPrompt(ModeExplain, f, "2026/07")

	if !strings.Contains(system, "early-warning analyst") {
		t.Error("system prompt should set the analyst role")
	}
	if !strings.Contains(system, "3-5 sentences") {
		t.Error("explain mode should request a short narrative")
	}
	for _, want := range []string{"Turkana", "+1m", "2026/07", "0.72", "High", "NDVI Anomaly: -0.50"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
	if strings.Contains(user, "Rainfall Anomaly") {
		t.Error("absent signals must not appear in the prompt")
	}
	if strings.Contains(user, `"actions"`) {
		t.Error("explain mode should not request actions")
	}
}

func TestBuildPromptBrief(t *testing.T) {
	system, user := buildPrompt(ModeBrief, testFacts(), "2026/07")

	if !strings.Contains(system, "actionable recommendations") {
		t.Error("brief mode should request recommendations")
	}
	if !strings.Contains(user, `"actions"`) {
		t.Error("brief mode should request an actions array")
	}
}

func TestBuildPromptNoSignals(t *testing.T) {
	_, user := buildPrompt(ModeExplain, testFacts(), "2026/07")

	if !strings.Contains(user, "Using available environmental and market indicators") {
		t.Error("expected the no-signals fallback line")
	}
}
