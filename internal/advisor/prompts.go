package advisor

import (
	"fmt"
	"strings"

	"github.com/droughtguard/droughtguard/internal/facts"
)

// Mode selects the narrative shape.
type Mode string

const (
	ModeExplain Mode = "explain"
	ModeBrief   Mode = "brief"
)

const analystRole = "You are a humanitarian early-warning analyst for drought and food insecurity."

// buildPrompt returns the system and user prompts for a mode. The
// signal bullets only include available fields so the prompt genuinely
// varies by region.
func buildPrompt(mode Mode, f facts.Facts, month string) (system, user string) {
	label := horizonPhrase(f.Horizon)
	signals := formatSignals(f)

	if mode == ModeExplain {
		system = analystRole + "\nProvide concise, operational explanations. Neutral tone. 3-5 sentences."
		user = fmt.Sprintf(`Explain the risk for %s, %s ahead (as of %s).

Context:
- Risk Probability: %.2f
- Risk Tier: %s

Environmental Signals:
%s

Respond with JSON only:
{
  "explanation": "3-5 sentence explanation",
  "disclaimers": "One sentence uncertainty note"
}`, f.Region, label, month, f.Probability, f.RiskTier, signals)
		return system, user
	}

	system = analystRole + "\nProvide detailed briefings with actionable recommendations. Neutral tone. 5-7 sentences + 1-2 actions."
	user = fmt.Sprintf(`Brief the risk for %s, %s ahead (as of %s).

Context:
- Risk Probability: %.2f
- Risk Tier: %s

Environmental Signals:
%s

Respond with JSON only:
{
  "explanation": "5-7 sentence detailed briefing",
  "actions": ["Action 1", "Action 2"],
  "disclaimers": "One sentence uncertainty note"
}`, f.Region, label, month, f.Probability, f.RiskTier, signals)
	return system, user
}

func horizonPhrase(horizon int) string {
	if horizon > 0 {
		return fmt.Sprintf("+%dm", horizon)
	}
	return "current"
}

func formatSignals(f facts.Facts) string {
	var parts []string
	add := func(name string, v *float64) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("- %s: %.2f", name, *v))
		}
	}
	add("NDVI Anomaly", f.NDVIAnomaly)
	add("Rainfall Anomaly", f.RainfallAnomaly)
	add("Food Price Inflation", f.FoodPriceInflation)
	add("Temperature Anomaly", f.TempAnomaly)
	add("NDVI Trend", f.DeltaNDVI)
	add("Price Trend", f.DeltaPrice)

	if len(parts) == 0 {
		return "- Using available environmental and market indicators"
	}
	return strings.Join(parts, "\n")
}
