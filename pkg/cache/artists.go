package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pcameron/labelagent/pkg/game"
)

const artistsFile = "artists.json"

// DiscoveredArtist is a scouted artist held client-side with a bookmark flag.
type DiscoveredArtist struct {
	Artist       game.Artist `json:"artist"`
	Bookmarked   bool        `json:"bookmarked"`
	DiscoveredAt time.Time   `json:"discoveredAt"`
}

// ArtistCache is the persisted, bookmarkable store of discovered artists.
type ArtistCache struct {
	Artists map[string]*DiscoveredArtist `json:"artists"`
	Path    string                       `json:"-"`
	mu      sync.RWMutex
	dirty   bool
}

// NewArtistCache loads the artist cache from the config directory, starting
// empty when no file exists yet.
func NewArtistCache(configDir string) (*ArtistCache, error) {
	path := filepath.Join(configDir, artistsFile)

	c := &ArtistCache{
		Artists: make(map[string]*DiscoveredArtist),
		Path:    path,
	}

	if _, err := os.Stat(path); err == nil {
		if err := c.Load(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *ArtistCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&c.Artists)
}

func (c *ArtistCache) Save() error {
	c.mu.RLock()
	if !c.dirty {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c.Artists); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Add records newly discovered artists, unbookmarked. Existing entries keep
// their bookmark state but pick up refreshed artist data.
func (c *ArtistCache) Add(artists ...game.Artist) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range artists {
		if existing, ok := c.Artists[a.ID]; ok {
			existing.Artist = a
		} else {
			c.Artists[a.ID] = &DiscoveredArtist{
				Artist:       a,
				Bookmarked:   false,
				DiscoveredAt: time.Now(),
			}
		}
		c.dirty = true
	}
}

// Bookmark toggles the bookmark flag. Returns false when the artist is not in
// the cache.
func (c *ArtistCache) Bookmark(artistID string, on bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.Artists[artistID]
	if !ok {
		return false
	}
	if entry.Bookmarked != on {
		entry.Bookmarked = on
		c.dirty = true
	}
	return true
}

// All returns the discovered artists ordered by discovery time.
func (c *ArtistCache) All() []DiscoveredArtist {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DiscoveredArtist, 0, len(c.Artists))
	for _, a := range c.Artists {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DiscoveredAt.Before(out[j].DiscoveredAt)
	})
	return out
}
