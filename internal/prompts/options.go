package prompts

import (
	"fmt"
	"strings"

	"dreamweaver-server/internal/models"
	"dreamweaver-server/internal/personalize"
)

// Style pools for option diversity. One entry of each pool is assigned to each
// requested option so the model receives an explicit, distinct recipe per
// option instead of a generic "be creative" instruction. Free-text generation
// drifts toward repetition across options for the same profile; assigning the
// recipe in the prompt itself is the only lever that adds variety without
// multiplying API calls.
var titleStyles = []string{
	"a title that starts with the child's name placeholder",
	"a title phrased as a magical question",
	"a title naming a fantastical place",
	"an alliterative title",
	"a title that mentions the favorite animal placeholder",
	"a title built around a color or light",
	"a title that promises a small secret",
	"a two-word punchy title",
}

var openingStyles = []string{
	"open with a sound the child hears at bedtime",
	"open in the middle of a gentle journey already underway",
	"open with a talking animal greeting the child",
	"open with a door, gate or window appearing somewhere familiar",
	"open with the child noticing something tiny that grows",
	"open under a night sky with one unusual star",
	"open with a letter or invitation addressed to the child",
	"open with the child's favorite color washing over the scene",
}

// OptionsPrompt requests count story option blocks in a single call. It uses
// the personal-name placeholder token throughout, never the literal name, and
// assigns mutually exclusive energy levels, title styles and opening styles
// per option.
func (c *Composer) OptionsPrompt(profile *models.ChildProfile, count int) string {
	energies := c.pickEnergyLevels(count)
	titles := c.pickStyles(titleStyles, count)
	openings := c.pickStyles(openingStyles, count)

	var b strings.Builder
	b.WriteString("You are a children's bedtime story author. Propose ")
	fmt.Fprintf(&b, "%d different bedtime story ideas for a %d-year-old child.\n\n", count, profile.Age)

	b.WriteString("About the child (use these to personalize the ideas):\n")
	fmt.Fprintf(&b, "- Refer to the child ONLY as %s. Never invent a name.\n", personalize.TokenChildName)
	fmt.Fprintf(&b, "- Favorite animal: %s\n", personalize.TokenFavoriteAnimal)
	fmt.Fprintf(&b, "- Favorite color: %s\n", personalize.TokenFavoriteColor)
	if profile.BestFriend != "" {
		fmt.Fprintf(&b, "- Best friend: %s\n", personalize.TokenBestFriend)
	}
	if profile.CurrentInterest != "" {
		fmt.Fprintf(&b, "- Currently fascinated by: %s\n", personalize.TokenCurrentInterest)
	}
	b.WriteString("\n")

	b.WriteString("Each idea must be clearly different from the others. Follow the recipe assigned to it:\n")
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "Story %d: energy level MUST be \"%s\"; use %s; %s.\n",
			i+1, energies[i], titles[i], openings[i])
	}
	b.WriteString("\n")

	b.WriteString("Respond with exactly one block per idea, in this exact format and nothing else:\n\n")
	fmt.Fprintf(&b, "STORY 1:\nTITLE: <the title>\nDESCRIPTION: <one to three sentences describing the story>\nDURATION: <estimated minutes, a number between 3 and 15>\nENERGY: <the assigned energy level>\nTAGS: <two to four comma-separated content tags>\nPREVIEW: <one enticing opening sentence>\n\n")
	b.WriteString("Repeat the block for every story, numbered in order. Keep every description gentle and age-appropriate.")

	return b.String()
}
