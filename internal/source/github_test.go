package source

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsManifestFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"SKILL.md", true},
		{"skill.md", true},
		{"Skill.md", true},
		{"SKILL.MD", true},
		{"README.md", false},
		{"skill.txt", false},
		{"skill", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, IsManifestFile(tt.filename), "IsManifestFile(%q)", tt.filename)
		})
	}
}

func TestManifestFallbackPaths(t *testing.T) {
	paths := ManifestFallbackPaths()
	assert.Equal(t, "SKILL.md", paths[0], "the canonical root manifest is checked first")
	assert.Contains(t, paths, ".claude/SKILL.md")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("get repo: %w", ErrNotFound)))
	assert.False(t, IsNotFound(errors.New("rate limited")))
	assert.False(t, IsNotFound(nil))
}

func TestResponseCache(t *testing.T) {
	cache := NewResponseCache(time.Hour)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("k", "v")
	got, ok := cache.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	cache.Clear()
	_, ok = cache.Get("k")
	assert.False(t, ok)
}

func TestResponseCache_Expiry(t *testing.T) {
	cache := NewResponseCache(time.Millisecond)
	cache.Set("k", "v")

	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get("k")
	assert.False(t, ok)
}

func TestEventIsPush(t *testing.T) {
	assert.True(t, Event{Type: PushEventType}.IsPush())
	assert.False(t, Event{Type: "WatchEvent"}.IsPush())
}
