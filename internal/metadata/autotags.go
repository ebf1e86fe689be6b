package metadata

import (
	"net/url"
	"strings"
)

// tag buckets keyed by domain fragments, matched by substring.
var tagBuckets = []struct {
	domains []string
	tags    []string
}{
	{domains: []string{"github", "gitlab", "bitbucket"}, tags: []string{"tech", "code"}},
	{domains: []string{"youtube", "vimeo", "dailymotion"}, tags: []string{"video"}},
	{domains: []string{"medium", "dev.to", "hashnode"}, tags: []string{"article", "tech"}},
	{domains: []string{"twitter", "facebook", "instagram"}, tags: []string{"social"}},
}

// AutoTags derives tags from a URL's hostname: the first domain label
// plus a category bucket for well-known sites. Unparseable URLs yield
// no tags.
func AutoTags(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil
	}

	domain := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	var tags []string
	if label, _, _ := strings.Cut(domain, "."); label != "" {
		tags = append(tags, label)
	}

	for _, bucket := range tagBuckets {
		for _, d := range bucket.domains {
			if strings.Contains(domain, d) {
				tags = append(tags, bucket.tags...)
				break
			}
		}
	}

	return tags
}
