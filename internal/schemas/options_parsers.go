// Package schemas converts free-form model output into typed story entities.
// Parsing is marker-first: the strict LABEL: schema the prompts request is
// tried before a looser block-splitting heuristic, with explicit accept and
// reject criteria per field.
package schemas

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"dreamweaver-server/internal/models"

	"github.com/google/uuid"
)

// Accept criteria for a parsed story option. Options failing them are
// dropped, not repaired.
const (
	minTitleLen       = 5
	minDescriptionLen = 20
)

const defaultDurationMinutes = 5

var looseBlockStart = regexp.MustCompile(`(?mi)^\s*(?:story\s+\d+\s*[:.)]|\d+\s*[.)])\s*`)

// ParseOptions extracts up to expectedCount story options from model text.
// The strict labeled-block pass runs first; when it yields fewer than
// expectedCount well-formed options, the loose pass runs and the richer
// result wins. Zero parsed options is a generation failure, never a silent
// empty result.
func ParseOptions(text string, expectedCount int) ([]models.StoryOption, error) {
	strict := parseOptionsStrict(text)
	options := strict
	if len(strict) < expectedCount {
		if loose := parseOptionsLoose(text); len(loose) > len(strict) {
			options = loose
		}
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: no story option found in %d bytes of output", models.ErrParseFailure, len(text))
	}
	if len(options) > expectedCount {
		options = options[:expectedCount]
	}
	return options, nil
}

// parseOptionsStrict walks the strict repeating block schema
// (TITLE:/DESCRIPTION:/DURATION:/ENERGY:/TAGS:/PREVIEW:).
func parseOptionsStrict(text string) []models.StoryOption {
	var options []models.StoryOption
	var current *models.StoryOption
	lastField := ""

	flush := func() {
		if current != nil && acceptOption(current) {
			options = append(options, *current)
		}
		current = nil
		lastField = ""
	}

	for _, line := range getNonEmptyTrimmedLines(text) {
		label, value := splitLabel(line)
		switch label {
		case "STORY":
			flush()
		case "TITLE":
			// A second TITLE without an intervening STORY marker starts a new block.
			if current != nil && current.Title != "" {
				flush()
			}
			if current == nil {
				current = newOption()
			}
			current.Title = value
			lastField = "title"
		case "DESCRIPTION":
			if current == nil {
				continue
			}
			current.Description = value
			lastField = "description"
		case "DURATION":
			if current == nil {
				continue
			}
			current.DurationMinutes = parseDuration(value)
			lastField = ""
		case "ENERGY":
			if current == nil {
				continue
			}
			current.EnergyLevel = normalizeEnergy(value)
			lastField = ""
		case "TAGS":
			if current == nil {
				continue
			}
			current.Tags = splitTags(value)
			lastField = ""
		case "PREVIEW":
			if current == nil {
				continue
			}
			current.Preview = value
			lastField = "preview"
		default:
			// Unlabeled line: continuation of the last free-text field.
			if current == nil {
				continue
			}
			switch lastField {
			case "description":
				current.Description = strings.TrimSpace(current.Description + " " + line)
			case "preview":
				current.Preview = strings.TrimSpace(current.Preview + " " + line)
			case "title":
				current.Description = line
				lastField = "description"
			}
		}
	}
	flush()
	return options
}

// parseOptionsLoose splits on numbered or "Story N:" markers and takes
// positional defaults: first non-empty line is the title, the rest is the
// description.
func parseOptionsLoose(text string) []models.StoryOption {
	indexes := looseBlockStart.FindAllStringIndex(text, -1)
	if len(indexes) == 0 {
		return nil
	}

	var options []models.StoryOption
	for i, idx := range indexes {
		end := len(text)
		if i+1 < len(indexes) {
			end = indexes[i+1][0]
		}
		block := text[idx[1]:end]

		lines := getNonEmptyTrimmedLines(block)
		if len(lines) == 0 {
			continue
		}
		option := newOption()
		_, title := splitLabel(lines[0])
		if title == "" {
			title = lines[0]
		}
		option.Title = strings.Trim(title, `"*`)

		var descParts []string
		for _, line := range lines[1:] {
			label, value := splitLabel(line)
			switch label {
			case "DURATION":
				option.DurationMinutes = parseDuration(value)
			case "ENERGY":
				option.EnergyLevel = normalizeEnergy(value)
			case "TAGS":
				option.Tags = splitTags(value)
			case "PREVIEW":
				option.Preview = value
			case "DESCRIPTION":
				descParts = append(descParts, value)
			default:
				descParts = append(descParts, line)
			}
		}
		option.Description = strings.Join(descParts, " ")
		if acceptOption(option) {
			options = append(options, *option)
		}
	}
	return options
}

func newOption() *models.StoryOption {
	return &models.StoryOption{
		ID:              uuid.New(),
		DurationMinutes: defaultDurationMinutes,
		EnergyLevel:     models.EnergyPeaceful,
	}
}

func acceptOption(o *models.StoryOption) bool {
	return len(o.Title) >= minTitleLen && len(o.Description) >= minDescriptionLen
}

// splitLabel recognizes "LABEL: value" lines. The label comparison is
// case-insensitive; "STORY 2:" is reported as label STORY.
func splitLabel(line string) (string, string) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", line
	}
	label := strings.ToUpper(strings.TrimSpace(line[:idx]))
	value := strings.TrimSpace(line[idx+1:])
	if strings.HasPrefix(label, "STORY ") || label == "STORY" {
		return "STORY", value
	}
	switch label {
	case "TITLE", "DESCRIPTION", "DURATION", "ENERGY", "TAGS", "PREVIEW":
		return label, value
	}
	return "", line
}

func parseDuration(value string) int {
	// Models answer "5", "5 minutes" or "5-7"; the leading integer is enough.
	digits := ""
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits += string(r)
		} else if digits != "" {
			break
		}
	}
	minutes, err := strconv.Atoi(digits)
	if err != nil || minutes <= 0 {
		return defaultDurationMinutes
	}
	return minutes
}

func normalizeEnergy(value string) models.EnergyLevel {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if models.IsValidEnergyLevel(normalized) {
		return models.EnergyLevel(normalized)
	}
	// The simpler high/medium/calming vocabulary maps onto the richer set.
	switch normalized {
	case "high":
		return models.EnergyEnergetic
	case "medium":
		return models.EnergyPlayful
	case "calming", "calm", "low":
		return models.EnergyPeaceful
	}
	return models.EnergyPeaceful
}

func splitTags(value string) []string {
	var tags []string
	for _, part := range strings.Split(value, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// getNonEmptyTrimmedLines splits text into non-empty, trimmed lines.
func getNonEmptyTrimmedLines(text string) []string {
	rawLines := strings.Split(text, "\n")
	var nonEmptyLines []string
	for _, line := range rawLines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			nonEmptyLines = append(nonEmptyLines, trimmed)
		}
	}
	return nonEmptyLines
}
