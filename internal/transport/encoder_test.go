package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylight021/lily/internal/uno"
)

func TestCardFileName(t *testing.T) {
	cases := []struct {
		card uno.Card
		want string
	}{
		{uno.Card{Color: uno.ColorRed, Value: uno.Five}, "red_5.png"},
		{uno.Card{Color: uno.ColorGreen, Value: uno.DrawTwo}, "green_draw-two.png"},
		{uno.Card{Color: uno.ColorWild, Value: uno.Wild}, "wild.png"},
		{uno.Card{Color: uno.ColorWild, Value: uno.WildDrawFour}, "wild-draw-four.png"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cardFileName(tc.card), tc.card.String())
	}
}

func newTestEncoder(store IdentityStore) *CardEncoder {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewCardEncoder("", store, logger)
}

func TestDecodeFromMemory(t *testing.T) {
	e := newTestEncoder(nil)

	sum := sha256.Sum256([]byte("webp bytes"))
	sha := hex.EncodeToString(sum[:])
	e.ids[sha] = [2]string{"Red", "5"}

	card, ok := e.Decode(context.Background(), sum[:])
	require.True(t, ok)
	assert.Equal(t, uno.Card{Color: uno.ColorRed, Value: uno.Five}, card)
}

func TestDecodeUnknownHash(t *testing.T) {
	e := newTestEncoder(nil)
	_, ok := e.Decode(context.Background(), []byte{0x01, 0x02})
	assert.False(t, ok)

	_, ok = e.Decode(context.Background(), nil)
	assert.False(t, ok)
}

// fakeStore is an in-memory IdentityStore standing in for Redis.
type fakeStore struct {
	m    map[string][2]string
	fail bool
}

func (s *fakeStore) StoreCardIdentity(ctx context.Context, sha, color, value string) error {
	if s.fail {
		return errors.New("store down")
	}
	s.m[sha] = [2]string{color, value}
	return nil
}

func (s *fakeStore) LookupCardIdentity(ctx context.Context, sha string) (string, string, bool, error) {
	if s.fail {
		return "", "", false, errors.New("store down")
	}
	id, ok := s.m[sha]
	return id[0], id[1], ok, nil
}

func TestDecodeFallsBackToStore(t *testing.T) {
	store := &fakeStore{m: map[string][2]string{}}
	e := newTestEncoder(store)

	sum := sha256.Sum256([]byte("some sticker"))
	sha := hex.EncodeToString(sum[:])
	store.m[sha] = [2]string{"Blue", "Draw Two"}

	card, ok := e.Decode(context.Background(), sum[:])
	require.True(t, ok)
	assert.Equal(t, uno.Card{Color: uno.ColorBlue, Value: uno.DrawTwo}, card)

	// Second decode is served from memory even if the store goes away.
	store.fail = true
	card, ok = e.Decode(context.Background(), sum[:])
	require.True(t, ok)
	assert.Equal(t, uno.Card{Color: uno.ColorBlue, Value: uno.DrawTwo}, card)
}

func TestDecodeStoreErrorIsNotACard(t *testing.T) {
	store := &fakeStore{m: map[string][2]string{}, fail: true}
	e := newTestEncoder(store)

	sum := sha256.Sum256([]byte("whatever"))
	_, ok := e.Decode(context.Background(), sum[:])
	assert.False(t, ok)
}
