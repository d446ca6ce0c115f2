package models

// SafetyResult is the combined outcome of the deterministic and model-based
// content checks. Score is 0-100; content is safe only when both passes agree
// and the combined score clears the threshold.
type SafetyResult struct {
	IsSafe          bool     `json:"isSafe"`
	Score           int      `json:"score"`
	DetScore        int      `json:"deterministicScore"`
	ModelScore      int      `json:"modelScore"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// NeedsImprovement is deliberately stricter than IsSafe: borderline content
// that technically passed still gets one remediation attempt.
func (r SafetyResult) NeedsImprovement() bool {
	return r.Score < 85 || len(r.Issues) > 0
}
