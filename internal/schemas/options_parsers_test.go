package schemas_test

import (
	"errors"
	"testing"

	"dreamweaver-server/internal/models"
	"dreamweaver-server/internal/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strictOptionsResponse = `STORY 1:
TITLE: {{childName}} and the Moonlit Garden
DESCRIPTION: A gentle adventure where {{childName}} discovers a garden that only blooms at night, guided by a friendly {{favoriteAnimal}}.
DURATION: 7
ENERGY: peaceful
TAGS: garden, night, friendship
PREVIEW: The moon winked, and the garden gate creaked open just for {{childName}}.

STORY 2:
TITLE: The Whispering {{favoriteColor}} Balloon
DESCRIPTION: {{childName}} follows a magical balloon that whispers riddles, floating over rooftops toward a surprise party.
DURATION: 5 minutes
ENERGY: playful
TAGS: balloon, riddles
PREVIEW: A {{favoriteColor}} balloon tapped softly on the window.
`

func TestParseOptions_Strict(t *testing.T) {
	options, err := schemas.ParseOptions(strictOptionsResponse, 2)
	require.NoError(t, err)
	require.Len(t, options, 2)

	first := options[0]
	assert.Equal(t, "{{childName}} and the Moonlit Garden", first.Title)
	assert.Contains(t, first.Description, "garden that only blooms at night")
	assert.Equal(t, 7, first.DurationMinutes)
	assert.Equal(t, models.EnergyPeaceful, first.EnergyLevel)
	assert.Equal(t, []string{"garden", "night", "friendship"}, first.Tags)
	assert.NotEmpty(t, first.Preview)
	assert.NotEqual(t, first.ID, options[1].ID)

	second := options[1]
	assert.Equal(t, 5, second.DurationMinutes, "duration with trailing words should parse the leading number")
	assert.Equal(t, models.EnergyPlayful, second.EnergyLevel)
}

func TestParseOptions_LooseFallback(t *testing.T) {
	// No labels at all, just numbered blocks: the loose pass should recover
	// title and description positionally.
	text := `Here are some ideas for tonight:

1. The Sleepy Cloud Factory
Up in the sky, {{childName}} visits the factory where dreams are stitched into clouds before bedtime.

2) A Lullaby for the Lighthouse
The old lighthouse has forgotten its song, and {{childName}} sails out to teach it a new one.
`
	options, err := schemas.ParseOptions(text, 3)
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "The Sleepy Cloud Factory", options[0].Title)
	assert.Contains(t, options[0].Description, "stitched into clouds")
	assert.Equal(t, "A Lullaby for the Lighthouse", options[1].Title)

	// Loose blocks without explicit fields fall back to defaults.
	assert.Equal(t, 5, options[0].DurationMinutes)
	assert.Equal(t, models.EnergyPeaceful, options[0].EnergyLevel)
}

func TestParseOptions_TruncatesToExpectedCount(t *testing.T) {
	options, err := schemas.ParseOptions(strictOptionsResponse, 1)
	require.NoError(t, err)
	assert.Len(t, options, 1)
	assert.Equal(t, "{{childName}} and the Moonlit Garden", options[0].Title)
}

func TestParseOptions_RejectsMalformedBlocks(t *testing.T) {
	// Title too short and description too short: both blocks rejected.
	text := `TITLE: Hi
DESCRIPTION: Too short.

TITLE: Long Enough Title
DESCRIPTION: nope
`
	_, err := schemas.ParseOptions(text, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrParseFailure))
}

func TestParseOptions_EmptyInput(t *testing.T) {
	_, err := schemas.ParseOptions("", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrParseFailure))
}

func TestParseOptions_EnergyNormalization(t *testing.T) {
	cases := []struct {
		raw  string
		want models.EnergyLevel
	}{
		{"peaceful", models.EnergyPeaceful},
		{"High", models.EnergyEnergetic},
		{"medium", models.EnergyPlayful},
		{"calming", models.EnergyPeaceful},
		{"nonsense", models.EnergyPeaceful},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			text := "TITLE: A Perfectly Fine Title\n" +
				"DESCRIPTION: A perfectly fine description that is long enough to be accepted.\n" +
				"ENERGY: " + tc.raw + "\n"
			options, err := schemas.ParseOptions(text, 1)
			require.NoError(t, err)
			require.Len(t, options, 1)
			assert.Equal(t, tc.want, options[0].EnergyLevel)
		})
	}
}

func TestParseOptions_MultilineDescription(t *testing.T) {
	text := `TITLE: The Paper Boat Voyage
DESCRIPTION: A paper boat grows big enough to sail on.
It carries {{childName}} down a river of warm milk and honey.
PREVIEW: The boat unfolded itself at the edge of the bathtub.
`
	options, err := schemas.ParseOptions(text, 1)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Contains(t, options[0].Description, "river of warm milk")
}
