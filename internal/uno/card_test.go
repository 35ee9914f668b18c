package uno

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardMatches(t *testing.T) {
	top := Card{Color: ColorRed, Value: Five}

	assert.True(t, Card{Color: ColorRed, Value: Nine}.Matches(top), "same color should match")
	assert.True(t, Card{Color: ColorBlue, Value: Five}.Matches(top), "same value should match")
	assert.True(t, Card{Color: ColorWild, Value: Wild}.Matches(top), "wild always matches")
	assert.True(t, Card{Color: ColorWild, Value: WildDrawFour}.Matches(top), "wild draw four always matches")
	assert.False(t, Card{Color: ColorBlue, Value: Nine}.Matches(top), "different color and value should not match")
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "Red 5", Card{Color: ColorRed, Value: Five}.String())
	assert.Equal(t, "Green Draw Two", Card{Color: ColorGreen, Value: DrawTwo}.String())
	assert.Equal(t, "Wild", Card{Color: ColorWild, Value: Wild}.String())
	assert.Equal(t, "Wild Draw Four", Card{Color: ColorWild, Value: WildDrawFour}.String())
}

func TestCardPredicates(t *testing.T) {
	assert.True(t, Card{Color: ColorWild, Value: Wild}.IsWild())
	assert.True(t, Card{Color: ColorWild, Value: WildDrawFour}.IsWild())
	assert.False(t, Card{Color: ColorRed, Value: Skip}.IsWild())

	assert.True(t, Card{Color: ColorRed, Value: Skip}.IsActionCard())
	assert.True(t, Card{Color: ColorRed, Value: Reverse}.IsActionCard())
	assert.True(t, Card{Color: ColorRed, Value: DrawTwo}.IsActionCard())
	assert.False(t, Card{Color: ColorRed, Value: Nine}.IsActionCard())

	assert.True(t, Card{Color: ColorWild, Value: Wild}.IsSpecial())
	assert.True(t, Card{Color: ColorRed, Value: Skip}.IsSpecial())
	assert.False(t, Card{Color: ColorRed, Value: Zero}.IsSpecial())
}

func TestParseColor(t *testing.T) {
	for _, in := range []string{"red", "Red", " RED "} {
		c, ok := ParseColor(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, ColorRed, c)
	}
	_, ok := ParseColor("purple")
	assert.False(t, ok)
	_, ok = ParseColor("wild")
	assert.False(t, ok, "wild is not a pickable color")
}

func TestSameIdentityNormalizes(t *testing.T) {
	a := Card{Color: ColorGreen, Value: DrawTwo}
	b := Card{Color: "green", Value: "draw_two"}
	assert.True(t, SameIdentity(a, b))

	c := Card{Color: "GREEN", Value: "Draw  Two"}
	assert.True(t, SameIdentity(a, c))

	d := Card{Color: ColorBlue, Value: DrawTwo}
	assert.False(t, SameIdentity(a, d))
}

func TestCardFromIdentity(t *testing.T) {
	c, ok := CardFromIdentity("Red", "5")
	require.True(t, ok)
	assert.Equal(t, Card{Color: ColorRed, Value: Five}, c)

	c, ok = CardFromIdentity("anything", "wild draw four")
	require.True(t, ok, "wild identity ignores color")
	assert.Equal(t, Card{Color: ColorWild, Value: WildDrawFour}, c)

	_, ok = CardFromIdentity("Purple", "5")
	assert.False(t, ok)
	_, ok = CardFromIdentity("Red", "eleven")
	assert.False(t, ok)
}
