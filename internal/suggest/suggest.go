// Package suggest provides fuzzy matching for misspelled config keys using
// Levenshtein distance.
package suggest

import (
	"sort"
	"strings"
)

// levenshtein calculates the edit distance between two strings
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// keyAliases maps words people try for a setting to its real key.
var keyAliases = map[string]string{
	"url":      "sync.url",
	"endpoint": "sync.url",
	"server":   "sync.url",
	"health":   "sync.health_url",
	"timeout":  "sync.timeout",
	"probe":    "sync.probe",
	"driver":   "store.driver",
	"listen":   "agent.listen",
	"addr":     "agent.listen",
	"interval": "agent.interval",
	"debounce": "agent.debounce",
	"watch":    "agent.watch",
	"level":    "log.level",
	"loglevel": "log.level",
	"logfile":  "log.file",
}

// Keys returns up to three keys close to unknown, best first. A key whose
// last segment matches exactly (e.g. "url" for "sync.url") ranks first.
func Keys(unknown string, valid []string) []string {
	unknown = strings.ToLower(strings.TrimSpace(unknown))
	if unknown == "" {
		return nil
	}

	type scored struct {
		key   string
		score int
	}
	var candidates []scored

	alias, hasAlias := keyAliases[strings.ReplaceAll(unknown, "_", "")]
	for _, key := range valid {
		if hasAlias && key == alias {
			candidates = append(candidates, scored{key, -1})
			continue
		}

		dist := levenshtein(unknown, key)
		if i := strings.LastIndexByte(key, '.'); i >= 0 {
			dist = min(dist, levenshtein(unknown, key[i+1:]))
		}

		// Only suggest if reasonably close (within 2 edits or a third of length)
		if dist <= max(2, len(unknown)/3) {
			candidates = append(candidates, scored{key, dist})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	var result []string
	for i := 0; i < len(candidates) && i < 3; i++ {
		result = append(result, candidates[i].key)
	}
	return result
}
