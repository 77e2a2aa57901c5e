// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

// Package m3u provides structural analysis of M3U playlist text.
//
// No strict grammar validation is performed. An #EXTINF directive with no
// following stream URL line still counts as a channel; real-world playlists
// are frequently malformed and the rewrite pipeline stays lenient.
package m3u

import (
	"regexp"
	"strings"
)

// MaxPlaylistBytes is the hard cap on playlist content, applied to pasted
// text and fetched responses alike. Content over the cap is rejected before
// any parsing or rule application happens.
const MaxPlaylistBytes = 5 * 1024 * 1024

// groupTitleRe extracts the group-title attribute from an #EXTINF line.
// Case-insensitive; some generators emit GROUP-TITLE.
var groupTitleRe = regexp.MustCompile(`(?i)group-title="([^"]*)"`)

// Stats describes the structure of a playlist body.
type Stats struct {
	Channels  int `json:"channels"`
	Groups    int `json:"groups"`
	Lines     int `json:"lines"`
	SizeBytes int `json:"size_bytes"`
}

// Analyze scans content and returns channel, group, line, and byte counts.
//
// Channels is the count of lines carrying an #EXTINF: directive, matched
// case-insensitively. Groups is the number of distinct group-title attribute
// values across those lines; a missing attribute contributes nothing. Lines
// is the newline-delimited line count of the text exactly as submitted.
func Analyze(content string) Stats {
	stats := Stats{
		Lines:     strings.Count(content, "\n") + 1,
		SizeBytes: len(content),
	}

	groups := make(map[string]struct{})
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(strings.ToUpper(line), "#EXTINF:") {
			continue
		}
		stats.Channels++
		if m := groupTitleRe.FindStringSubmatch(line); m != nil {
			groups[m[1]] = struct{}{}
		}
	}
	stats.Groups = len(groups)
	return stats
}

// Preview returns the leading slice of content up to maxBytes and whether
// truncation occurred, so callers can annotate truncated output.
func Preview(content string, maxBytes int) (string, bool) {
	if maxBytes < 0 {
		maxBytes = 0
	}
	if len(content) <= maxBytes {
		return content, false
	}
	return content[:maxBytes], true
}

// CheckSize reports whether content fits under MaxPlaylistBytes.
func CheckSize(content string) bool {
	return len(content) <= MaxPlaylistBytes
}
