package prompts

import (
	"fmt"
	"strings"

	"dreamweaver-server/internal/models"
	"dreamweaver-server/internal/personalize"
)

// Word-count bounds for generated narrative.
const (
	openingMinWords      = 150
	openingMaxWords      = 300
	continuationMinWords = 200
	continuationMaxWords = 400
)

// profileLines writes the shared personalization block.
func profileLines(b *strings.Builder, profile *models.ChildProfile) {
	fmt.Fprintf(b, "The listener is %d years old. Refer to the child ONLY as %s.\n", profile.Age, personalize.TokenChildName)
	fmt.Fprintf(b, "Weave in the favorite animal %s and the favorite color %s where they fit naturally.\n",
		personalize.TokenFavoriteAnimal, personalize.TokenFavoriteColor)
	if profile.BestFriend != "" {
		fmt.Fprintf(b, "The best friend %s may appear as a companion.\n", personalize.TokenBestFriend)
	}
	if profile.CurrentInterest != "" {
		fmt.Fprintf(b, "The child currently loves %s; a nod to it is welcome.\n", personalize.TokenCurrentInterest)
	}
}

// SegmentPrompt requests the opening segment for a chosen story option. The
// segment must end in exactly one choice point with exactly two mutually
// exclusive options.
func (c *Composer) SegmentPrompt(profile *models.ChildProfile, option *models.StoryOption, prior []models.PriorChoice) string {
	var b strings.Builder

	b.WriteString("You are a children's bedtime story author writing an interactive story.\n\n")
	fmt.Fprintf(&b, "Write the opening of the story titled \"%s\".\n", option.Title)
	fmt.Fprintf(&b, "Story premise: %s\n", option.Description)
	fmt.Fprintf(&b, "Energy level: %s. Match the pacing and mood to it.\n\n", option.EnergyLevel)

	profileLines(&b, profile)

	if len(prior) > 0 {
		b.WriteString("\nChoices already taken in an earlier telling, oldest first; stay consistent with them:\n")
		for i, pc := range prior {
			fmt.Fprintf(&b, "%d. %s", i+1, pc.ChoiceText)
			if pc.Outcome != "" {
				fmt.Fprintf(&b, " (led to: %s)", pc.Outcome)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nThe opening must be between %d and %d words and must end at a moment of gentle decision.\n\n", openingMinWords, openingMaxWords)

	b.WriteString("After the narrative, append EXACTLY ONE choice point with EXACTLY TWO mutually exclusive options, in this exact format:\n\n")
	b.WriteString("CHOICE POINT: <one sentence describing the situation the child must decide in>\n")
	b.WriteString("OPTION A: <what the child can choose to do>\n")
	b.WriteString("OUTCOME A: <one short hint at where this choice leads>\n")
	b.WriteString("OPTION B: <a clearly different thing the child can choose to do>\n")
	b.WriteString("OUTCOME B: <one short hint at where this choice leads>\n\n")
	b.WriteString("The outcomes must be implied by the narrative but never narrated outright. No violence, no fear, nothing scary; this is a bedtime story.")

	return b.String()
}

// ContinuationPrompt requests the next segment after a choice was selected.
// The continuation must either conclude the story naturally or pose exactly
// one new choice point; those are the only two permitted endings.
func (c *Composer) ContinuationPrompt(profile *models.ChildProfile, previousContent, choiceText, outcomeHint string) string {
	var b strings.Builder

	b.WriteString("You are a children's bedtime story author continuing an interactive story.\n\n")
	b.WriteString("The story so far:\n")
	b.WriteString(previousContent)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "The child chose: %s\n", choiceText)
	if outcomeHint != "" {
		fmt.Fprintf(&b, "This choice should lead toward: %s\n", outcomeHint)
	}
	b.WriteString("\n")

	profileLines(&b, profile)

	fmt.Fprintf(&b, "\nWrite the continuation in %d to %d words.\n\n", continuationMinWords, continuationMaxWords)

	b.WriteString("The continuation must end in EXACTLY ONE of these two ways, and no other:\n")
	b.WriteString("1. A natural, sleepy ending. Close with explicit ending language (for example \"...and that is how the adventure ended. The End.\") and append the line:\nTHE END\n")
	b.WriteString("2. Exactly one new choice point with exactly two mutually exclusive options, in this exact format:\n\n")
	b.WriteString("CHOICE POINT: <one sentence describing the new situation>\n")
	b.WriteString("OPTION A: <first choice>\n")
	b.WriteString("OUTCOME A: <one short hint>\n")
	b.WriteString("OPTION B: <second, clearly different choice>\n")
	b.WriteString("OUTCOME B: <one short hint>\n\n")
	b.WriteString("Never combine an ending with a new choice point, and never produce neither. Keep everything calm and age-appropriate.")

	return b.String()
}
