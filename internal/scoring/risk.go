package scoring

// RiskLevel is the three-tier classification of a composite score
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Score thresholds for the risk tiers
const (
	MediumRiskThreshold = 50
	HighRiskThreshold   = 70
)

// Risk carries a risk level with its display attributes
type Risk struct {
	Level RiskLevel `json:"level"`
	Label string    `json:"label"`
	Color string    `json:"color"`
	Emoji string    `json:"emoji"`
}

// ClassifyRisk maps a composite score to its risk tier
func ClassifyRisk(score int) Risk {
	switch {
	case score >= HighRiskThreshold:
		return Risk{Level: RiskHigh, Label: "DANGER - Big Fish Leaving", Color: "red", Emoji: "🔴"}
	case score >= MediumRiskThreshold:
		return Risk{Level: RiskMedium, Label: "CAUTION - Watch Carefully", Color: "yellow", Emoji: "🟡"}
	default:
		return Risk{Level: RiskLow, Label: "SAFE - Calm Waters", Color: "green", Emoji: "🟢"}
	}
}

// FishEmoji picks the creature shown next to a composite score
func FishEmoji(score int) string {
	switch {
	case score >= 90:
		return "🐋"
	case score >= 70:
		return "🦈"
	case score >= 50:
		return "🐬"
	case score >= 30:
		return "🐟"
	default:
		return "🐠"
	}
}

// FishSize labels a single transaction by its USD value
type FishSize struct {
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

// ClassifyFishSize buckets a transaction value into whale/shark/dolphin/big fish
func ClassifyFishSize(usdValue float64) FishSize {
	switch {
	case usdValue > 1_000_000:
		return FishSize{Label: "WHALE", Emoji: "🐋"}
	case usdValue > 500_000:
		return FishSize{Label: "SHARK", Emoji: "🦈"}
	case usdValue > 100_000:
		return FishSize{Label: "DOLPHIN", Emoji: "🐬"}
	default:
		return FishSize{Label: "BIG FISH", Emoji: "🐟"}
	}
}
