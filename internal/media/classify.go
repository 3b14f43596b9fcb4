// Package media resolves uploaded files into stored attachments: it pushes
// bytes to a blob store and classifies the resulting URL.
package media

import (
	"net/url"
	"path"
	"strings"

	"vibez/internal/models"
)

var kindByExt = map[string]models.MediaKind{
	"jpg":  models.MediaKindImage,
	"jpeg": models.MediaKindImage,
	"png":  models.MediaKindImage,
	"gif":  models.MediaKindImage,
	"mp4":  models.MediaKindVideo,
	"mov":  models.MediaKindVideo,
	"avi":  models.MediaKindVideo,
}

// Classify derives the media kind from the extension of rawURL's path.
// Query strings and fragments are ignored and the match is case-insensitive.
func Classify(rawURL string) models.MediaKind {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if kind, ok := kindByExt[ext]; ok {
		return kind
	}
	return models.MediaKindUnknown
}
