package safety

import (
	"regexp"
	"strings"
)

// blockedWords is the lexical block list for the deterministic pass:
// violence, fear and adult-theme vocabulary that has no place in a bedtime
// story regardless of context.
var blockedWords = []string{
	"kill", "killed", "killing", "murder", "stab", "shoot", "gun", "knife",
	"blood", "bleed", "gore", "corpse", "dead body",
	"terrify", "terrifying", "horrify", "horrifying", "nightmare",
	"demon", "devil", "hell", "torture", "scream", "screaming",
	"weapon", "violence", "violent", "attack", "attacked",
	"drug", "alcohol", "cigarette", "naked", "sexy",
	"hate", "hatred", "revenge", "suicide", "die", "died", "dying", "death",
}

var blockedPattern = buildBlockedPattern()

func buildBlockedPattern() *regexp.Regexp {
	escaped := make([]string, len(blockedWords))
	for i, w := range blockedWords {
		escaped[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// scanBlockedWords returns each blocked term found in the text, one entry per
// distinct term.
func scanBlockedWords(text string) []string {
	matches := blockedPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var hits []string
	for _, m := range matches {
		lower := strings.ToLower(m)
		if !seen[lower] {
			seen[lower] = true
			hits = append(hits, lower)
		}
	}
	return hits
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
