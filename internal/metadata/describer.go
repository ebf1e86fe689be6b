// Package metadata fetches descriptive fields for a URL so link
// drafts can be pre-filled. Everything here is best-effort: failures
// and timeouts yield an empty description, never an error that would
// block creation.
package metadata

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/utils"
)

// maxBodyBytes caps how much of a page is read while looking for
// meta tags. OGP tags live in <head>, so this is plenty.
const maxBodyBytes = 1 << 20

// Description holds the fields extracted from a page.
// Zero value = nothing could be fetched.
type Description struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
}

// Describer fetches and parses page metadata.
type Describer struct {
	client *http.Client
	log    logger.Logger
}

// NewDescriber builds a describer with a hard per-fetch timeout.
func NewDescriber(timeout time.Duration, log logger.Logger) *Describer {
	return &Describer{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
		log: log,
	}
}

// Describe fetches the URL and extracts OGP fields, falling back to
// the document title and the description meta tag. Any failure
// returns a zero Description.
func (d *Describer) Describe(ctx context.Context, rawURL string) Description {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		d.log.Debug("describe: bad url", logger.String("url", rawURL), logger.Error(err))
		return Description{}
	}
	req.Header.Set("Accept", "text/html")

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Debug("describe: fetch failed", logger.String("url", rawURL), logger.Error(err))
		return Description{}
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		d.log.Debug("describe: non-200 response",
			logger.String("url", rawURL),
			logger.Int("status", resp.StatusCode))
		return Description{}
	}

	desc, err := parsePage(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		d.log.Debug("describe: parse failed", logger.String("url", rawURL), logger.Error(err))
		return Description{}
	}
	return desc
}

// parsePage walks the HTML tree collecting OGP meta tags, the
// description meta tag and the <title> element.
func parsePage(r io.Reader) (Description, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Description{}, err
	}

	var desc Description
	var docTitle string
	var metaDescription string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "meta":
				prop := strings.ToLower(attr(n, "property"))
				name := strings.ToLower(attr(n, "name"))
				content := attr(n, "content")
				switch {
				case prop == "og:title":
					desc.Title = content
				case prop == "og:description":
					desc.Description = content
				case prop == "og:image":
					desc.ImageURL = content
				case prop == "og:site_name":
					desc.SiteName = content
				case name == "description":
					metaDescription = content
				}
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					docTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if desc.Title == "" {
		desc.Title = docTitle
	}
	if desc.Description == "" {
		desc.Description = metaDescription
	}

	return desc, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
