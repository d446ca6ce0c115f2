package models

import (
	"time"

	"github.com/google/uuid"
)

// EnergyLevel tags a story option with the mood it is written for.
type EnergyLevel string

const (
	EnergyEnergetic   EnergyLevel = "energetic"
	EnergyPeaceful    EnergyLevel = "peaceful"
	EnergyMystical    EnergyLevel = "mystical"
	EnergyPlayful     EnergyLevel = "playful"
	EnergyCozy        EnergyLevel = "cozy"
	EnergyAdventurous EnergyLevel = "adventurous"
	EnergyGentle      EnergyLevel = "gentle"
	EnergyExciting    EnergyLevel = "exciting"
)

// AllEnergyLevels lists every valid energy tag, in a stable order.
var AllEnergyLevels = []EnergyLevel{
	EnergyEnergetic, EnergyPeaceful, EnergyMystical, EnergyPlayful,
	EnergyCozy, EnergyAdventurous, EnergyGentle, EnergyExciting,
}

// IsValidEnergyLevel reports whether s is a known energy tag.
func IsValidEnergyLevel(s string) bool {
	for _, lvl := range AllEnergyLevels {
		if string(lvl) == s {
			return true
		}
	}
	return false
}

// StoryOption is a proposed story before any full content exists. Options are
// ephemeral: they live only in the generation response until the caller commits
// one of them to full generation.
type StoryOption struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	DurationMinutes int         `json:"durationMinutes"`
	EnergyLevel     EnergyLevel `json:"energyLevel"`
	Tags            []string    `json:"tags"`
	Preview         string      `json:"preview,omitempty"`
}

// SavedStory is the root metadata record of a persisted branching story.
type SavedStory struct {
	ID              uuid.UUID   `json:"id"`
	ProfileID       uuid.UUID   `json:"profileId"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	DurationMinutes int         `json:"durationMinutes"`
	EnergyLevel     EnergyLevel `json:"energyLevel"`
	Tags            []string    `json:"tags"`
	Preview         string      `json:"preview,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// StorySegment is one node in a story's branching tree. The root has no parent
// and no producing choice; every other segment was produced by exactly one
// choice option of its parent.
type StorySegment struct {
	ID              uuid.UUID     `json:"id"`
	StoryID         uuid.UUID     `json:"storyId"`
	ParentSegmentID *uuid.UUID    `json:"parentSegmentId,omitempty"`
	Content         string        `json:"content"`
	ChoiceText      string        `json:"choiceText,omitempty"`
	ChoiceID        string        `json:"choiceId,omitempty"`
	Position        int           `json:"position"`
	HasChoices      bool          `json:"hasChoices"`
	ChoicePoints    []ChoicePoint `json:"choicePoints,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// ChoicePoint is a junction inside a segment: a situation plus the options the
// child can pick from.
type ChoicePoint struct {
	ID        uuid.UUID      `json:"id"`
	SegmentID uuid.UUID      `json:"segmentId"`
	Situation string         `json:"situation"`
	Position  int            `json:"position"`
	Options   []ChoiceOption `json:"options"`
}

// ChoiceOption is one selectable branch of a choice point. Outcome is an
// internal hint fed back into the continuation prompt; it is never a promise
// shown to the child.
type ChoiceOption struct {
	ID       string `json:"id"`
	Label    string `json:"label"` // "A", "B"
	Text     string `json:"text"`
	Outcome  string `json:"outcome,omitempty"`
	Position int    `json:"position"`
}

// FindChoiceOption scans the segment's choice points for the option with the
// given generation-time-unique ID.
func (s *StorySegment) FindChoiceOption(choiceID string) (*ChoicePoint, *ChoiceOption) {
	for i := range s.ChoicePoints {
		cp := &s.ChoicePoints[i]
		for j := range cp.Options {
			if cp.Options[j].ID == choiceID {
				return cp, &cp.Options[j]
			}
		}
	}
	return nil, nil
}

// PriorChoice records one already-taken branch, oldest first. Passed into the
// full-segment prompt so regenerated openings stay consistent with history.
type PriorChoice struct {
	ChoiceText string `json:"choiceText"`
	Outcome    string `json:"outcome,omitempty"`
}
