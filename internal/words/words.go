// Package words holds the themed word lists a room draws its secret word
// from. Lists are intentionally small and curated; unknown themes fall back
// to the default list.
package words

import (
	"math/rand"
	"sort"
)

// DefaultTheme is used when a room does not name a theme
const DefaultTheme = "default"

var themes = map[string][]string{
	DefaultTheme: {
		"diamond", "mirror", "shadow", "compass", "lantern",
		"umbrella", "hammer", "anchor", "hourglass", "telescope",
		"rainbow", "volcano", "glacier", "meteor", "eclipse",
		"castle", "bridge", "tunnel", "harbor", "stadium",
		"guitar", "trumpet", "canvas", "sculpture", "origami",
	},
	"food": {
		"pizza", "sushi", "burger", "taco", "croissant",
		"chocolate", "vanilla", "cinnamon", "wasabi", "honey",
		"noodles", "dumpling", "pancake", "waffle", "pretzel",
		"avocado", "mango", "coconut", "popcorn", "lasagna",
	},
	"animals": {
		"dolphin", "octopus", "penguin", "flamingo", "chameleon",
		"tiger", "falcon", "wolf", "panther", "cobra",
		"hedgehog", "platypus", "armadillo", "toucan", "meerkat",
		"jellyfish", "scorpion", "raccoon", "walrus", "gecko",
	},
	"places": {
		"casino", "subway", "rooftop", "lighthouse", "warehouse",
		"temple", "fortress", "pyramid", "bunker", "tower",
		"carnival", "aquarium", "vineyard", "observatory", "bazaar",
		"cemetery", "sauna", "submarine", "treehouse", "catacombs",
	},
}

// Themes returns the available theme identifiers in sorted order
func Themes() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize maps an unknown or empty theme to the default
func Normalize(theme string) string {
	if _, ok := themes[theme]; !ok {
		return DefaultTheme
	}
	return theme
}

// Random returns a random word from the theme's list
func Random(theme string) string {
	list := themes[Normalize(theme)]
	return list[rand.Intn(len(list))]
}

// RandomExcluding returns a random word from the theme that is not in the
// excluded list, falling back to any word if none qualifies quickly.
func RandomExcluding(theme string, excluded []string) string {
	excludeMap := make(map[string]bool, len(excluded))
	for _, w := range excluded {
		excludeMap[w] = true
	}

	for attempts := 0; attempts < 100; attempts++ {
		word := Random(theme)
		if !excludeMap[word] {
			return word
		}
	}
	return Random(theme)
}
