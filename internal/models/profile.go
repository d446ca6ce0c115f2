package models

import (
	"time"

	"github.com/google/uuid"
)

// Age bounds accepted for a child profile.
const (
	MinChildAge = 3
	MaxChildAge = 12
)

// ChildProfile describes the child a story is personalized for. Generated text
// never embeds these values directly; it carries placeholder tokens that are
// resolved against the profile at delivery time.
type ChildProfile struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Age             int       `json:"age"`
	FavoriteAnimal  string    `json:"favoriteAnimal"`
	FavoriteColor   string    `json:"favoriteColor"`
	BestFriend      string    `json:"bestFriend,omitempty"`
	CurrentInterest string    `json:"currentInterest,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Validate checks the profile fields that generation depends on.
func (p *ChildProfile) Validate() error {
	if p.Name == "" {
		return ErrInvalidInput
	}
	if p.Age < MinChildAge || p.Age > MaxChildAge {
		return ErrInvalidInput
	}
	return nil
}
