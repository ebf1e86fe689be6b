package domain

import (
	"regexp"
	"sort"
	"strings"
)

// TagCount is one row of the tag aggregation: a distinct tag and the
// number of items carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// AggregateTags computes distinct tags with usage counts across a
// collection, descending by count. Ties keep first-seen input order.
// It is recomputed from scratch on every call; no counters are kept
// that could drift from the source collection.
func AggregateTags(items []BookmarkItem) []TagCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, it := range items {
		for _, tag := range it.Tags {
			if _, ok := counts[tag]; !ok {
				firstSeen[tag] = order
				order++
			}
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return firstSeen[out[i].Tag] < firstSeen[out[j].Tag]
	})

	return out
}

// NormalizeTags lowercases and trims tags, dropping empties and
// duplicates while preserving first-seen order. Normalization is an
// entity invariant: every write path goes through here.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}

	return out
}

var hashtagRe = regexp.MustCompile(`#[a-zA-Z0-9_]+`)

// ParseTagInput turns free-form user input into a normalized tag list.
// Both comma-separated values and #hashtag syntax are accepted,
// including mixed forms like "go, #tooling reading".
func ParseTagInput(input string) []string {
	var tags []string

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "#") {
			for _, ht := range hashtagRe.FindAllString(part, -1) {
				tags = append(tags, strings.TrimPrefix(ht, "#"))
			}
			continue
		}
		tags = append(tags, part)
	}

	return NormalizeTags(tags)
}
