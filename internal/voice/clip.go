package voice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ClipSlot holds at most one audio clip on disk. Loading a new clip removes
// the previous file before the new one is written.
type ClipSlot struct {
	dir    string
	player Player

	mu      sync.Mutex
	current string
}

// NewClipSlot stores clips under dir using player for playback
func NewClipSlot(dir string, player Player) (*ClipSlot, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	if player == nil {
		player = NewCommandPlayer()
	}
	return &ClipSlot{dir: dir, player: player}, nil
}

// Load replaces the current clip with audio and returns its path.
// ext is the file extension without the dot, e.g. "mp3" or "wav".
func (c *ClipSlot) Load(audio []byte, ext string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.releaseLocked(); err != nil {
		return "", err
	}

	path := filepath.Join(c.dir, fmt.Sprintf("clip_%s.%s", uuid.NewString(), ext))
	if err := os.WriteFile(path, audio, 0600); err != nil {
		return "", fmt.Errorf("failed to write clip: %w", err)
	}
	c.current = path
	return path, nil
}

// Reserve releases the current clip and hands out a fresh path for a tool
// that writes its own output file
func (c *ClipSlot) Reserve(ext string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.releaseLocked(); err != nil {
		return "", err
	}
	c.current = filepath.Join(c.dir, fmt.Sprintf("clip_%s.%s", uuid.NewString(), ext))
	return c.current, nil
}

// Current returns the path of the loaded clip, or "" when empty
func (c *ClipSlot) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Play plays the current clip
func (c *ClipSlot) Play(ctx context.Context) error {
	path := c.Current()
	if path == "" {
		return fmt.Errorf("no clip loaded")
	}
	return c.player.PlayFile(ctx, path)
}

// Release removes the current clip
func (c *ClipSlot) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseLocked()
}

func (c *ClipSlot) releaseLocked() error {
	if c.current == "" {
		return nil
	}
	if err := os.Remove(c.current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release clip: %w", err)
	}
	c.current = ""
	return nil
}
