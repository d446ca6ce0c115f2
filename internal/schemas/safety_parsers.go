package schemas

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"dreamweaver-server/internal/models"
)

// SafetyReview is the parsed form of a model safety rubric response.
type SafetyReview struct {
	Score           int
	Concerns        []string
	Recommendations []string
}

var looseScorePattern = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:/\s*100|out of 100)?\b`)

// ParseSafetyReview parses the SCORE:/CONCERNS:/RECOMMENDATIONS: rubric with
// the same marker-first strategy as the story parsers. A response with no
// recognizable score at all is a parse failure.
func ParseSafetyReview(text string) (*SafetyReview, error) {
	review := &SafetyReview{Score: -1}
	section := ""

	for _, line := range getNonEmptyTrimmedLines(text) {
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "SCORE:"):
			value := strings.TrimSpace(line[len("SCORE:"):])
			if score, err := strconv.Atoi(strings.TrimSuffix(value, "/100")); err == nil {
				review.Score = clampScore(score)
			}
			section = ""
		case strings.HasPrefix(upper, "CONCERNS:"):
			section = "concerns"
			if rest := strings.TrimSpace(line[len("CONCERNS:"):]); rest != "" {
				appendRubricItem(&review.Concerns, rest)
			}
		case strings.HasPrefix(upper, "RECOMMENDATIONS:"):
			section = "recommendations"
			if rest := strings.TrimSpace(line[len("RECOMMENDATIONS:"):]); rest != "" {
				appendRubricItem(&review.Recommendations, rest)
			}
		default:
			switch section {
			case "concerns":
				appendRubricItem(&review.Concerns, line)
			case "recommendations":
				appendRubricItem(&review.Recommendations, line)
			}
		}
	}

	// Loose fallback: some models answer "I rate this 85 out of 100".
	if review.Score < 0 {
		if m := looseScorePattern.FindStringSubmatch(text); m != nil {
			if score, err := strconv.Atoi(m[1]); err == nil && score <= 100 {
				review.Score = score
			}
		}
	}
	if review.Score < 0 {
		return nil, fmt.Errorf("%w: safety review contains no score", models.ErrParseFailure)
	}
	return review, nil
}

func appendRubricItem(items *[]string, line string) {
	item := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "-"), "*"))
	if item == "" || strings.EqualFold(item, "none") {
		return
	}
	*items = append(*items, item)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
