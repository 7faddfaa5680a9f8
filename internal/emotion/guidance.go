package emotion

// Guidance returns a short tone guideline for a pedagogical action.
func Guidance(action string) string {
	switch action {
	case "Repeat lesson":
		return "Gently suggest going over the material once more, without implying failure."
	case "Offer additional hint":
		return "Offer a small, concrete hint that nudges toward the next step."
	case "Slow down pace":
		return "Calm and unhurried. Invite the student to take their time."
	case "Provide encouragement":
		return "Warm and upbeat. Praise the effort, not the result."
	case "Proceed normally":
		return "Friendly and brief. Signal readiness to continue."
	default:
		return ""
	}
}
