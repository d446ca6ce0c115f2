package schemas

import (
	"fmt"
	"strings"

	"dreamweaver-server/internal/models"

	"github.com/google/uuid"
)

// SegmentContent is the typed result of parsing one generated segment.
type SegmentContent struct {
	Content      string
	ChoicePoints []models.ChoicePoint
	// IsEnding is set when the model closed the story with explicit ending
	// language instead of a new choice point.
	IsEnding bool
}

// ParseSegment parses a full opening segment: narrative content followed by
// choice-point markers. A segment with no narrative content is a parse
// failure; a missing choice point is tolerated and simply leaves the segment
// without further choices.
func ParseSegment(text string) (*SegmentContent, error) {
	parsed := parseNarrativeAndChoices(text)
	if parsed.Content == "" {
		return nil, fmt.Errorf("%w: segment has no narrative content", models.ErrParseFailure)
	}
	return parsed, nil
}

// ParseContinuation parses a continuation segment. Per the prompt contract it
// ends either with explicit ending language or with one new choice point; a
// response with neither is treated as a plain ending rather than rejected.
func ParseContinuation(text string) (*SegmentContent, error) {
	parsed := parseNarrativeAndChoices(text)
	if parsed.Content == "" {
		return nil, fmt.Errorf("%w: continuation has no narrative content", models.ErrParseFailure)
	}
	if len(parsed.ChoicePoints) == 0 {
		parsed.IsEnding = true
	}
	return parsed, nil
}

// parseNarrativeAndChoices walks the text line by line, collecting narrative
// until the first choice-point marker, then extracting repeating
// CHOICE POINT / OPTION A / OPTION B triples. A triple is kept only when
// situation, option A text and option B text are all non-empty. Every
// extracted option gets a generation-time-unique identifier so identical
// choice text across segments never collides.
func parseNarrativeAndChoices(text string) *SegmentContent {
	result := &SegmentContent{}

	var narrative []string
	var points []models.ChoicePoint

	type pendingPoint struct {
		situation string
		optionA   string
		outcomeA  string
		optionB   string
		outcomeB  string
	}
	var pending *pendingPoint

	flush := func() {
		if pending == nil {
			return
		}
		if pending.situation != "" && pending.optionA != "" && pending.optionB != "" {
			points = append(points, models.ChoicePoint{
				ID:        uuid.New(),
				Situation: pending.situation,
				Position:  len(points),
				Options: []models.ChoiceOption{
					{ID: uuid.NewString(), Label: "A", Text: pending.optionA, Outcome: pending.outcomeA, Position: 0},
					{ID: uuid.NewString(), Label: "B", Text: pending.optionB, Outcome: pending.outcomeB, Position: 1},
				},
			})
		}
		pending = nil
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			if pending == nil && len(narrative) > 0 && narrative[len(narrative)-1] != "" {
				narrative = append(narrative, "")
			}
			continue
		}

		marker, value := choiceMarker(line)
		switch marker {
		case "CHOICE_POINT":
			flush()
			pending = &pendingPoint{situation: value}
		case "OPTION_A":
			if pending != nil {
				pending.optionA = value
			}
		case "OUTCOME_A":
			if pending != nil {
				pending.outcomeA = value
			}
		case "OPTION_B":
			if pending != nil {
				pending.optionB = value
			}
		case "OUTCOME_B":
			if pending != nil {
				pending.outcomeB = value
			}
		case "THE_END":
			result.IsEnding = true
		default:
			if pending != nil {
				// Free text inside a choice block extends the situation.
				pending.situation = strings.TrimSpace(pending.situation + " " + line)
			} else {
				narrative = append(narrative, line)
			}
		}
	}
	flush()

	result.Content = strings.TrimSpace(strings.Join(narrative, "\n"))
	result.ChoicePoints = points
	return result
}

// choiceMarker recognizes the structural markers of a segment response.
// "Choice Point 2:" and "CHOICE POINT:" are both accepted.
func choiceMarker(line string) (string, string) {
	upper := strings.ToUpper(line)

	if upper == "THE END" || upper == "THE END." {
		return "THE_END", ""
	}

	markers := []struct {
		name     string
		prefixes []string
	}{
		{"CHOICE_POINT", []string{"CHOICE POINT"}},
		{"OPTION_A", []string{"OPTION A"}},
		{"OUTCOME_A", []string{"OUTCOME A"}},
		{"OPTION_B", []string{"OPTION B"}},
		{"OUTCOME_B", []string{"OUTCOME B"}},
	}
	for _, m := range markers {
		for _, prefix := range m.prefixes {
			if !strings.HasPrefix(upper, prefix) {
				continue
			}
			rest := line[len(prefix):]
			// Tolerate an optional number between marker and colon.
			idx := strings.Index(rest, ":")
			if idx < 0 || strings.TrimSpace(strings.Map(dropDigits, rest[:idx])) != "" {
				continue
			}
			return m.name, strings.TrimSpace(rest[idx+1:])
		}
	}
	return "", line
}

func dropDigits(r rune) rune {
	if r >= '0' && r <= '9' {
		return -1
	}
	return r
}
