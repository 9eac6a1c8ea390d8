// Package cdn builds delivery URLs for images hosted on the media CDN.
package cdn

import (
	"fmt"
	"net/url"
	"strings"
)

// Transform describes an on-the-fly image transformation.
type Transform struct {
	Width   int
	Height  int
	Crop    string
	Quality string
	Format  string
}

// Builder produces delivery URLs of the form
// <base>/<cloud>/image/upload/<transformations>/<publicID>.<format>.
type Builder struct {
	BaseURL   string
	CloudName string
}

func NewBuilder(baseURL, cloudName string) *Builder {
	return &Builder{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		CloudName: cloudName,
	}
}

// URL returns "" for an empty public id so callers can omit missing images.
func (b *Builder) URL(publicID string, t Transform) string {
	publicID = strings.Trim(publicID, "/")
	if publicID == "" {
		return ""
	}

	segments := []string{b.BaseURL, url.PathEscape(b.CloudName), "image", "upload"}
	if opts := t.options(); opts != "" {
		segments = append(segments, opts)
	}

	parts := strings.Split(publicID, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	path := strings.Join(parts, "/")
	if t.Format != "" {
		path = path + "." + t.Format
	}

	return strings.Join(append(segments, path), "/")
}

// Thumbnail is the square avatar used on doctor cards.
func (b *Builder) Thumbnail(publicID string) string {
	return b.URL(publicID, Transform{Width: 200, Height: 200, Crop: "fill", Quality: "auto"})
}

func (t Transform) options() string {
	var opts []string
	if t.Width > 0 {
		opts = append(opts, fmt.Sprintf("w_%d", t.Width))
	}
	if t.Height > 0 {
		opts = append(opts, fmt.Sprintf("h_%d", t.Height))
	}
	if t.Crop != "" {
		opts = append(opts, "c_"+t.Crop)
	}
	if t.Quality != "" {
		opts = append(opts, "q_"+t.Quality)
	}
	return strings.Join(opts, ",")
}
