package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, DefaultTheme, Normalize(""))
	assert.Equal(t, DefaultTheme, Normalize("no-such-theme"))
	assert.Equal(t, "food", Normalize("food"))
}

func TestThemes(t *testing.T) {
	names := Themes()
	assert.Contains(t, names, DefaultTheme)
	assert.Contains(t, names, "food")
	assert.Contains(t, names, "animals")
	assert.Contains(t, names, "places")
}

func TestRandom_StaysInTheme(t *testing.T) {
	inTheme := make(map[string]bool, len(themes["food"]))
	for _, w := range themes["food"] {
		inTheme[w] = true
	}

	for i := 0; i < 50; i++ {
		assert.True(t, inTheme[Random("food")])
	}
}

func TestRandomExcluding(t *testing.T) {
	// Exclude all but one word and check the survivor always comes back
	list := themes["food"]
	excluded := list[1:]

	for i := 0; i < 20; i++ {
		assert.Equal(t, list[0], RandomExcluding("food", excluded))
	}
}

func TestRandomExcluding_AllExcludedFallsBack(t *testing.T) {
	word := RandomExcluding("food", themes["food"])
	assert.NotEmpty(t, word)
}
