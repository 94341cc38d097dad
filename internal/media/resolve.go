package media

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Type classifies a message attachment.
type Type string

const (
	TypeNone     Type = ""
	TypeImage    Type = "image"
	TypeVideo    Type = "video"
	TypeDocument Type = "document"
	TypeSticker  Type = "sticker"
	TypeVoice    Type = "voice"
	TypeAudio    Type = "audio"
)

// fallbackExt maps a media type to a file extension when no usable MIME type is known.
var fallbackExt = map[Type]string{
	TypeImage:    "jpg",
	TypeVideo:    "mp4",
	TypeVoice:    "ogg",
	TypeAudio:    "mp3",
	TypeDocument: "bin",
	TypeSticker:  "webp",
}

// suffixType maps outbound file suffixes to media types.
var suffixType = map[string]Type{
	".webp": TypeSticker,
	".tgs":  TypeSticker,
	".jpg":  TypeImage,
	".jpeg": TypeImage,
	".png":  TypeImage,
	".gif":  TypeImage,
	".ogg":  TypeVoice,
	".opus": TypeVoice,
	".mp3":  TypeAudio,
	".wav":  TypeAudio,
	".m4a":  TypeAudio,
	".flac": TypeAudio,
}

// ExtensionFor picks a file extension for a downloaded attachment.
// The MIME subtype wins when present ("image/jpeg" → "jpeg", parameters stripped);
// otherwise the media type's fallback applies, and "dat" if nothing is known.
func ExtensionFor(mediaType Type, mimeType string) string {
	if idx := strings.Index(mimeType, "/"); idx >= 0 {
		sub := mimeType[idx+1:]
		if semi := strings.Index(sub, ";"); semi >= 0 {
			sub = sub[:semi]
		}
		sub = strings.TrimSpace(sub)
		if sub != "" {
			return sub
		}
	}
	if ext, ok := fallbackExt[mediaType]; ok {
		return ext
	}
	return "dat"
}

// ResolveOutboundType decides how to send a local file.
// An explicit known type wins; otherwise the path suffix is consulted and
// anything unrecognized goes out as a generic document.
func ResolveOutboundType(path string, explicit Type) Type {
	switch explicit {
	case TypeImage, TypeVoice, TypeAudio, TypeSticker, TypeDocument:
		return explicit
	}
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := suffixType[ext]; ok {
		return t
	}
	return TypeDocument
}

// DetectMime sniffs the MIME type of a local file. Empty on failure so callers
// can fall through to transport-side defaults.
func DetectMime(path string) string {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	return m.String()
}
