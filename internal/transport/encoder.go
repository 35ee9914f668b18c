package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daylight021/lily/internal/uno"
)

// DefaultCardArtURL hosts one PNG per card identity.
const DefaultCardArtURL = "https://raw.githubusercontent.com/daylight021/lily/main/lib/cards/"

// IdentityStore persists sticker-hash -> card mappings so forwarded card
// stickers stay recognizable. Implemented by the Redis cache; a nil store
// keeps identities in memory only.
type IdentityStore interface {
	StoreCardIdentity(ctx context.Context, sha string, color, value string) error
	LookupCardIdentity(ctx context.Context, sha string) (color, value string, ok bool, err error)
}

// CardEncoder turns a card identity into a compact webp sticker and maps
// inbound sticker hashes back to cards. The webp bytes for a given card are
// deterministic per process, so the plaintext FileSHA256 WhatsApp reports for
// a forwarded copy is a stable identity key.
type CardEncoder struct {
	artBaseURL string
	store      IdentityStore
	httpc      *http.Client
	logger     *logrus.Logger

	mu   sync.Mutex
	webp map[string][]byte    // card string -> encoded sticker
	ids  map[string][2]string // sha256 hex -> {color, value}
}

func NewCardEncoder(artBaseURL string, store IdentityStore, logger *logrus.Logger) *CardEncoder {
	if artBaseURL == "" {
		artBaseURL = DefaultCardArtURL
	}
	return &CardEncoder{
		artBaseURL: artBaseURL,
		store:      store,
		httpc:      &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		webp:       make(map[string][]byte),
		ids:        make(map[string][2]string),
	}
}

// cardFileName mirrors the art repository's naming: wild cards are named by
// value alone, colored cards as color_value.
func cardFileName(c uno.Card) string {
	value := strings.ToLower(strings.ReplaceAll(string(c.Value), " ", "-"))
	if c.IsWild() {
		return value + ".png"
	}
	return strings.ToLower(string(c.Color)) + "_" + value + ".png"
}

// Encode returns the webp sticker for a card, fetching and converting the art
// on first use and memoizing afterwards.
func (e *CardEncoder) Encode(ctx context.Context, c uno.Card) ([]byte, error) {
	key := c.String()
	e.mu.Lock()
	if data, ok := e.webp[key]; ok {
		e.mu.Unlock()
		return data, nil
	}
	e.mu.Unlock()

	png, err := e.fetchArt(ctx, c)
	if err != nil {
		return nil, err
	}
	data, err := convertToWebp(ctx, png)
	if err != nil {
		return nil, fmt.Errorf("convert card %s to webp: %w", key, err)
	}

	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])

	e.mu.Lock()
	e.webp[key] = data
	e.ids[sha] = [2]string{string(c.Color), string(c.Value)}
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.StoreCardIdentity(ctx, sha, string(c.Color), string(c.Value)); err != nil {
			e.logger.WithError(err).Warn("failed to persist card identity")
		}
	}
	return data, nil
}

// Decode maps an inbound sticker hash back to a card identity. Returns false
// for anything that is not a card sticker this bot produced.
func (e *CardEncoder) Decode(ctx context.Context, fileSHA256 []byte) (uno.Card, bool) {
	if len(fileSHA256) == 0 {
		return uno.Card{}, false
	}
	sha := hex.EncodeToString(fileSHA256)

	e.mu.Lock()
	id, ok := e.ids[sha]
	e.mu.Unlock()
	if ok {
		return rebuild(id[0], id[1])
	}

	if e.store != nil {
		color, value, found, err := e.store.LookupCardIdentity(ctx, sha)
		if err != nil {
			e.logger.WithError(err).Warn("card identity lookup failed")
			return uno.Card{}, false
		}
		if found {
			e.mu.Lock()
			e.ids[sha] = [2]string{color, value}
			e.mu.Unlock()
			return rebuild(color, value)
		}
	}
	return uno.Card{}, false
}

func rebuild(color, value string) (uno.Card, bool) {
	return uno.CardFromIdentity(color, value)
}

func (e *CardEncoder) fetchArt(ctx context.Context, c uno.Card) ([]byte, error) {
	url := e.artBaseURL + cardFileName(c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch card art %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch card art %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read card art %s: %w", url, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("card art %s is empty", url)
	}
	return data, nil
}

// convertToWebp shells out to ffmpeg, the same converter the sticker commands
// use, padding to the 512x512 canvas WhatsApp expects.
func convertToWebp(ctx context.Context, png []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "lily-card-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.webp")
	if err := os.WriteFile(in, png, 0o644); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", in,
		"-vf", "scale=512:512:force_original_aspect_ratio=decrease,pad=512:512:-1:-1:color=0x00000000",
		"-vcodec", "libwebp", "-lossless", "0", "-q:v", "75", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, string(output))
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, err
	}
	return data, nil
}
