package enums

import (
	"fmt"
	"strings"
)

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

func ParseMediaType(raw string) (MediaType, error) {
	switch kind := MediaType(strings.ToLower(strings.TrimSpace(raw))); kind {
	case MediaTypeImage, MediaTypeVideo:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown media type %q", raw)
	}
}

// MediaTypeFromContentType maps an upload content type onto a media type.
func MediaTypeFromContentType(contentType string) (MediaType, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaTypeImage, true
	case strings.HasPrefix(ct, "video/"):
		return MediaTypeVideo, true
	default:
		return "", false
	}
}
