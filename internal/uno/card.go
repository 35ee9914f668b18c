package uno

import "strings"

// Color is a card's suit color. Wild cards carry ColorWild until the player
// who plays them picks a color; the field is rewritten exactly once at that
// point and the card matches as a colored card afterwards.
type Color string

const (
	ColorRed    Color = "Red"
	ColorGreen  Color = "Green"
	ColorBlue   Color = "Blue"
	ColorYellow Color = "Yellow"
	ColorWild   Color = "Wild"
)

// Colors lists the four pickable suit colors.
var Colors = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

// ParseColor resolves a player-typed color name. It accepts any casing and
// surrounding whitespace but only the four suit colors.
func ParseColor(s string) (Color, bool) {
	for _, c := range Colors {
		if normalize(s) == normalize(string(c)) {
			return c, true
		}
	}
	return "", false
}

// Value is a card's face value.
type Value string

const (
	Zero  Value = "0"
	One   Value = "1"
	Two   Value = "2"
	Three Value = "3"
	Four  Value = "4"
	Five  Value = "5"
	Six   Value = "6"
	Seven Value = "7"
	Eight Value = "8"
	Nine  Value = "9"

	Skip         Value = "Skip"
	Reverse      Value = "Reverse"
	DrawTwo      Value = "Draw Two"
	Wild         Value = "Wild"
	WildDrawFour Value = "Wild Draw Four"
)

var numberValues = []Value{Zero, One, Two, Three, Four, Five, Six, Seven, Eight, Nine}

// Card is an immutable value object except for the one-time wild color fix.
type Card struct {
	Color Color `json:"color"`
	Value Value `json:"value"`
}

// IsWild reports whether the card requires a color choice when played.
func (c Card) IsWild() bool {
	return c.Value == Wild || c.Value == WildDrawFour
}

// IsActionCard reports whether the card is Skip, Reverse or Draw Two.
func (c Card) IsActionCard() bool {
	return c.Value == Skip || c.Value == Reverse || c.Value == DrawTwo
}

// IsSpecial is the union of IsWild and IsActionCard.
func (c Card) IsSpecial() bool {
	return c.IsWild() || c.IsActionCard()
}

func (c Card) String() string {
	if c.IsWild() {
		return string(c.Value)
	}
	return string(c.Color) + " " + string(c.Value)
}

// Matches reports whether the card may legally be played on top.
func (c Card) Matches(top Card) bool {
	return c.IsWild() || c.Color == top.Color || c.Value == top.Value
}

// normalize folds case and collapses whitespace/underscore runs so card
// identities decoded from sticker metadata compare reliably.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '\t'
	}), " ")
}

// SameIdentity compares two cards by normalized color and value.
func SameIdentity(a, b Card) bool {
	return normalize(string(a.Color)) == normalize(string(b.Color)) &&
		normalize(string(a.Value)) == normalize(string(b.Value))
}

// CardFromIdentity rebuilds a Card from decoded color/value strings, or
// returns false when they do not name a real card.
func CardFromIdentity(color, value string) (Card, bool) {
	for _, v := range append(append([]Value{}, numberValues...), Skip, Reverse, DrawTwo, Wild, WildDrawFour) {
		if normalize(value) != normalize(string(v)) {
			continue
		}
		if v == Wild || v == WildDrawFour {
			return Card{Color: ColorWild, Value: v}, true
		}
		for _, c := range Colors {
			if normalize(color) == normalize(string(c)) {
				return Card{Color: c, Value: v}, true
			}
		}
		return Card{}, false
	}
	return Card{}, false
}
