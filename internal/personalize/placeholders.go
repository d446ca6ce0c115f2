// Package personalize replaces the fixed placeholder vocabulary in generated
// text with literal child-profile values. Stored text always keeps the
// placeholder form; resolution happens only when text is prepared for delivery,
// so the same generated story can be replayed for a profile without touching
// the model again.
package personalize

import (
	"strconv"
	"strings"

	"dreamweaver-server/internal/models"
)

// Placeholder tokens the prompt composer instructs the model to use.
const (
	TokenChildName       = "{{childName}}"
	TokenAge             = "{{age}}"
	TokenFavoriteAnimal  = "{{favoriteAnimal}}"
	TokenFavoriteColor   = "{{favoriteColor}}"
	TokenBestFriend      = "{{bestFriend}}"
	TokenCurrentInterest = "{{currentInterest}}"
)

var allTokens = []string{
	TokenChildName,
	TokenAge,
	TokenFavoriteAnimal,
	TokenFavoriteColor,
	TokenBestFriend,
	TokenCurrentInterest,
}

// HasPlaceholders reports whether text still contains any placeholder token.
func HasPlaceholders(text string) bool {
	for _, token := range allTokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

// Resolve replaces every placeholder token with the profile's literal values.
// Resolving already-resolved text is a no-op since the source tokens are gone.
func Resolve(text string, profile *models.ChildProfile) string {
	if text == "" || profile == nil {
		return text
	}
	replacer := strings.NewReplacer(
		TokenChildName, profile.Name,
		TokenAge, strconv.Itoa(profile.Age),
		TokenFavoriteAnimal, profile.FavoriteAnimal,
		TokenFavoriteColor, profile.FavoriteColor,
		TokenBestFriend, orFallback(profile.BestFriend, "their best friend"),
		TokenCurrentInterest, orFallback(profile.CurrentInterest, "something wonderful"),
	)
	return replacer.Replace(text)
}

// ResolveSegment returns a copy of the segment with every user-facing string
// resolved: content, choice-point situations, option texts and outcome hints.
func ResolveSegment(segment *models.StorySegment, profile *models.ChildProfile) *models.StorySegment {
	if segment == nil {
		return nil
	}
	resolved := *segment
	resolved.Content = Resolve(segment.Content, profile)
	resolved.ChoiceText = Resolve(segment.ChoiceText, profile)
	if len(segment.ChoicePoints) > 0 {
		resolved.ChoicePoints = make([]models.ChoicePoint, len(segment.ChoicePoints))
		for i, cp := range segment.ChoicePoints {
			resolvedCP := cp
			resolvedCP.Situation = Resolve(cp.Situation, profile)
			resolvedCP.Options = make([]models.ChoiceOption, len(cp.Options))
			for j, opt := range cp.Options {
				resolvedOpt := opt
				resolvedOpt.Text = Resolve(opt.Text, profile)
				resolvedOpt.Outcome = Resolve(opt.Outcome, profile)
				resolvedCP.Options[j] = resolvedOpt
			}
			resolved.ChoicePoints[i] = resolvedCP
		}
	}
	return &resolved
}

// ResolveOption returns a copy of the story option with title, description and
// preview resolved.
func ResolveOption(option *models.StoryOption, profile *models.ChildProfile) *models.StoryOption {
	if option == nil {
		return nil
	}
	resolved := *option
	resolved.Title = Resolve(option.Title, profile)
	resolved.Description = Resolve(option.Description, profile)
	resolved.Preview = Resolve(option.Preview, profile)
	return &resolved
}

func orFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
