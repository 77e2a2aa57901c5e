// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package m3u

import (
	"strings"
	"testing"
)

func TestAnalyze(t *testing.T) {
	t.Run("counts channels and distinct groups", func(t *testing.T) {
		content := "#EXTINF:-1 group-title=\"News\",Ch1\nhttp://x\n#EXTINF:-1 group-title=\"News\",Ch2\nhttp://y\n"
		stats := Analyze(content)
		if stats.Channels != 2 {
			t.Errorf("channels = %d, want 2", stats.Channels)
		}
		if stats.Groups != 1 {
			t.Errorf("groups = %d, want 1", stats.Groups)
		}
	})

	t.Run("extinf matching is case insensitive", func(t *testing.T) {
		content := "#extinf:-1,lower\nhttp://a\n#EXTINF:-1,upper\nhttp://b"
		if got := Analyze(content).Channels; got != 2 {
			t.Errorf("channels = %d, want 2", got)
		}
	})

	t.Run("extinf without following url still counts", func(t *testing.T) {
		content := "#EXTM3U\n#EXTINF:-1,Orphan\n#EXTINF:-1,WithURL\nhttp://x"
		if got := Analyze(content).Channels; got != 2 {
			t.Errorf("channels = %d, want 2", got)
		}
	})

	t.Run("group-title matching is case insensitive", func(t *testing.T) {
		content := "#EXTINF:-1 GROUP-TITLE=\"News\",A\nhttp://a\n#EXTINF:-1 group-title=\"Sports\",B\nhttp://b"
		stats := Analyze(content)
		if stats.Groups != 2 {
			t.Errorf("groups = %d, want 2", stats.Groups)
		}
	})

	t.Run("missing group-title contributes no group", func(t *testing.T) {
		content := "#EXTINF:-1,NoGroup\nhttp://x\n#EXTINF:-1 group-title=\"A\",G\nhttp://y"
		stats := Analyze(content)
		if stats.Groups != 1 {
			t.Errorf("groups = %d, want 1", stats.Groups)
		}
	})

	t.Run("line count is newlines plus one", func(t *testing.T) {
		content := "a\nb\nc"
		stats := Analyze(content)
		if stats.Lines != 3 {
			t.Errorf("lines = %d, want 3", stats.Lines)
		}
		if Analyze("a\nb\nc\n").Lines != 4 {
			t.Errorf("trailing newline should add a line")
		}
	})

	t.Run("size is byte length", func(t *testing.T) {
		content := "#EXTM3U\n#EXTINF:-1,Ché\nhttp://x"
		if got := Analyze(content).SizeBytes; got != len(content) {
			t.Errorf("size = %d, want %d", got, len(content))
		}
	})

	t.Run("empty content", func(t *testing.T) {
		stats := Analyze("")
		if stats.Channels != 0 || stats.Groups != 0 || stats.SizeBytes != 0 {
			t.Errorf("unexpected stats for empty content: %+v", stats)
		}
	})
}

func TestPreview(t *testing.T) {
	t.Run("short content returned whole", func(t *testing.T) {
		preview, truncated := Preview("short", 100)
		if preview != "short" || truncated {
			t.Errorf("got (%q, %v), want (%q, false)", preview, truncated, "short")
		}
	})

	t.Run("long content truncated with flag", func(t *testing.T) {
		content := strings.Repeat("x", 200)
		preview, truncated := Preview(content, 50)
		if len(preview) != 50 || !truncated {
			t.Errorf("got len %d truncated %v, want 50 true", len(preview), truncated)
		}
	})

	t.Run("exact boundary is not truncation", func(t *testing.T) {
		content := strings.Repeat("x", 50)
		if _, truncated := Preview(content, 50); truncated {
			t.Error("content at exactly maxBytes must not report truncation")
		}
	})
}

func TestCheckSize(t *testing.T) {
	t.Run("exactly at cap passes", func(t *testing.T) {
		if !CheckSize(strings.Repeat("a", MaxPlaylistBytes)) {
			t.Error("content of exactly MaxPlaylistBytes must pass")
		}
	})

	t.Run("one byte over cap fails", func(t *testing.T) {
		if CheckSize(strings.Repeat("a", MaxPlaylistBytes+1)) {
			t.Error("content one byte over MaxPlaylistBytes must fail")
		}
	})
}
