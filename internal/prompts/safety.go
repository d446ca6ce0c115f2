package prompts

import (
	"fmt"
	"strings"
)

// SafetyReviewPrompt asks a backend to rate story text against a fixed rubric.
// The response is parsed with the same marker-first strategy as the story
// parsers, so the format instructions are strict.
func SafetyReviewPrompt(text string, age int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are reviewing a bedtime story for a %d-year-old child.\n\n", age)
	b.WriteString("Story text:\n---\n")
	b.WriteString(text)
	b.WriteString("\n---\n\n")
	b.WriteString("Rate how appropriate this story is for the child's age, considering fright level, themes, vocabulary and emotional tone.\n\n")
	b.WriteString("Respond in this exact format and nothing else:\n\n")
	b.WriteString("SCORE: <a number from 0 to 100, where 100 is perfectly appropriate>\n")
	b.WriteString("CONCERNS:\n- <one concern per line, or the single word None>\n")
	b.WriteString("RECOMMENDATIONS:\n- <one concrete improvement per line, or the single word None>\n")

	return b.String()
}

// RemediationPrompt asks a backend to rewrite story text so it addresses the
// listed safety issues while keeping the plot, placeholders and choice-point
// markers intact.
func RemediationPrompt(text string, age int, issues []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are revising a bedtime story for a %d-year-old child.\n\n", age)
	b.WriteString("The current text has these problems:\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	b.WriteString("\nOriginal text:\n---\n")
	b.WriteString(text)
	b.WriteString("\n---\n\n")
	b.WriteString("Rewrite the story so every problem above is fixed. Keep the same plot, the same placeholder tokens (for example {{childName}}), and any CHOICE POINT / OPTION / OUTCOME lines exactly in their original format. Respond with the corrected story text only.")

	return b.String()
}
