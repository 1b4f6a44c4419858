package gamefaqs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	errs "gfmapdl/pkg/errors"
	"gfmapdl/pkg/models"
	"gfmapdl/pkg/sanitize"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrProfileUnreachable is returned when the maps listing cannot be fetched
	ErrProfileUnreachable = errors.New("could not access maps contribution page")

	// ErrNoMaps is returned when the listing contains no map links
	ErrNoMaps = errors.New("profile contained no maps")
)

// FetchManifest downloads and parses the maps listing of username.
// The listing request is sent with the contributor page as Referer.
func (c *Client) FetchManifest(ctx context.Context, username string) (*models.Manifest, error) {
	profileURL := ProfileURL(c.baseURL, username)
	mapsURL := MapsURL(c.baseURL, username)

	c.SetReferer(profileURL)
	c.logger.InfoWithFields("fetching maps listing", map[string]interface{}{
		"username": username,
		"url":      mapsURL,
	})

	var body bytes.Buffer
	if _, err := c.Fetch(ctx, mapsURL, &body); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetching maps listing: %w", err)
		}
		c.logger.WithError(err).ErrorWithFields("maps listing could not be accessed", map[string]interface{}{
			"url": mapsURL,
		})
		return nil, fmt.Errorf("%w at %s: %w", ErrProfileUnreachable, profileURL, err)
	}

	manifest, err := ParseManifest(&body, c.baseURL)
	if err != nil {
		return nil, err
	}
	manifest.ProfileURL = profileURL
	manifest.MapsURL = mapsURL

	if len(manifest.Entries) == 0 {
		c.logger.WarnWithFields("maps listing has no maps", map[string]interface{}{
			"url": mapsURL,
		})
		return manifest, fmt.Errorf("%s's profile at %s: %w", username, mapsURL, ErrNoMaps)
	}

	c.logger.InfoWithFields("parsed maps listing", map[string]interface{}{
		"profile": manifest.ProfileName,
		"maps":    len(manifest.Entries),
	})
	return manifest, nil
}

// ParseManifest extracts the profile name and map entries from a listing page.
// Links are resolved against baseURL.
func ParseManifest(r io.Reader, baseURL string) (*models.Manifest, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse maps listing: %v", err),
			Err:     err,
		}
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	manifest := &models.Manifest{}
	if title := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Title }); title != nil {
		parts := strings.Split(textContent(title), " - ")
		manifest.ProfileName = clean(parts[len(parts)-1])
	}

	for _, a := range findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.A && hasClass(n, "link_color")
	}) {
		manifest.Entries = append(manifest.Entries, models.Entry{
			Name: fmt.Sprintf("%s - %s - %s", gameOf(a), consoleOf(a), clean(textContent(a))),
			URL:  resolveHref(base, attr(a, "href")),
		})
	}

	return manifest, nil
}

// gameOf returns the text of the first link inside the entry's content block
func gameOf(a *html.Node) string {
	content := closestAncestor(a, atom.Div, "content")
	if content == nil {
		return ""
	}
	link := findFirst(content, func(n *html.Node) bool { return n.DataAtom == atom.A })
	if link == nil {
		return ""
	}
	return clean(textContent(link))
}

// consoleOf returns the title heading of the pod holding the entry
func consoleOf(a *html.Node) string {
	pod := closestAncestor(a, atom.Div, "pod")
	if pod == nil {
		return ""
	}
	heading := findFirst(pod, func(n *html.Node) bool {
		return n.DataAtom == atom.H3 && hasClass(n, "title")
	})
	if heading == nil {
		return ""
	}
	return clean(textContent(heading))
}

func clean(s string) string {
	return strings.TrimSpace(sanitize.Sanitize(s))
}

func resolveHref(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return base.String() + href
	}
	return base.ResolveReference(ref).String()
}

func closestAncestor(n *html.Node, tag atom.Atom, class string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == tag && hasClass(p, class) {
			return p
		}
	}
	return nil
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
