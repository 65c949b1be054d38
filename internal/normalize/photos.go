package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultPhotoCount    = 5
	DefaultPhotoTemplate = "https://media.mlspin.com/photo.aspx?mls=%s&n=%d&w=600&h=450"
	DefaultFallbackImage = "https://images.unsplash.com/photo-1568605114967-8130f3a36994?w=600"
)

var photoSizePattern = regexp.MustCompile(`([?&])w=\d+&h=\d+`)

// upgradePhotoURL asks the photo service for the large rendition.
func upgradePhotoURL(href string) string {
	if href == "" {
		return href
	}
	return photoSizePattern.ReplaceAllString(href, "${1}w=1024&h=768")
}

// PhotoURLs synthesizes n photo-service URLs for an MLS number. Existence of
// the photos is not verified.
func PhotoURLs(template, mlsNumber string, n int) []string {
	if mlsNumber == "" || n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf(template, mlsNumber, i))
	}
	return out
}

// LargeURLs rewrites photo-service URLs to the detail-page size in place.
// Other URLs pass through.
func LargeURLs(urls []string) []string {
	for i := range urls {
		urls[i] = upgradePhotoURL(urls[i])
	}
	return urls
}

// imagesFrom extracts URLs from the shapes upstreams use: a partner Media
// array of objects, a list of strings or href objects, or a single string.
func imagesFrom(v any) []string {
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			out = append(out, s)
		}
	}
	switch t := v.(type) {
	case string:
		add(t)
	case []string:
		for _, s := range t {
			add(s)
		}
	case []any:
		for _, item := range t {
			switch it := item.(type) {
			case string:
				add(it)
			case map[string]any:
				for _, k := range []string{"MediaURL", "url", "href", "URL"} {
					if s, ok := it[k].(string); ok && s != "" {
						add(s)
						break
					}
				}
			}
		}
	}
	return out
}
