package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		name      string
		mediaType Type
		mimeType  string
		want      string
	}{
		{"mime subtype wins", TypeImage, "image/jpeg", "jpeg"},
		{"mime parameters stripped", TypeAudio, "audio/ogg; codecs=opus", "ogg"},
		{"voice fallback", TypeVoice, "", "ogg"},
		{"sticker fallback", TypeSticker, "", "webp"},
		{"image fallback", TypeImage, "", "jpg"},
		{"video fallback", TypeVideo, "", "mp4"},
		{"audio fallback", TypeAudio, "", "mp3"},
		{"document fallback", TypeDocument, "", "bin"},
		{"unknown type", TypeNone, "", "dat"},
		{"mime without slash ignored", TypeVoice, "ogg", "ogg"},
		{"empty subtype falls back", TypeImage, "image/", "jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtensionFor(tt.mediaType, tt.mimeType))
		})
	}
}

func TestResolveOutboundType(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		explicit Type
		want     Type
	}{
		{"explicit image wins over suffix", "note.mp3", TypeImage, TypeImage},
		{"explicit sticker", "whatever", TypeSticker, TypeSticker},
		{"mp3 suffix", "note.mp3", TypeNone, TypeAudio},
		{"png suffix", "photo.png", TypeNone, TypeImage},
		{"uppercase suffix", "PHOTO.JPG", TypeNone, TypeImage},
		{"ogg suffix is voice", "memo.ogg", TypeNone, TypeVoice},
		{"opus suffix is voice", "memo.opus", TypeNone, TypeVoice},
		{"webp suffix is sticker", "face.webp", TypeNone, TypeSticker},
		{"tgs suffix is sticker", "face.tgs", TypeNone, TypeSticker},
		{"flac suffix is audio", "song.flac", TypeNone, TypeAudio},
		{"unknown suffix is document", "x", TypeNone, TypeDocument},
		{"pdf is document", "report.pdf", TypeNone, TypeDocument},
		{"video explicit is not a send kind", "clip.bin", TypeVideo, TypeDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveOutboundType(tt.path, tt.explicit))
		})
	}
}
