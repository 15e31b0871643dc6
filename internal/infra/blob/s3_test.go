package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func TestSniffImage(t *testing.T) {
	meta, err := sniffImage(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", meta.MIME)
	assert.Equal(t, ".png", meta.Extension)
	assert.EqualValues(t, len(pngHeader), meta.SizeB)

	_, err = sniffImage([]byte("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = sniffImage(nil)
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		bucket string
		key    string
		want   string
	}{
		{"plain", "https://cdn.example.com", "avatars", "u1/avatar_1.png", "https://cdn.example.com/avatars/u1/avatar_1.png"},
		{"escaped", "https://cdn.example.com", "project_images", "p 1/cover_2.jpg", "https://cdn.example.com/project_images/p%201/cover_2.jpg"},
		{"empty key", "https://cdn.example.com", "avatars", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicURL(tt.base, tt.bucket, tt.key))
		})
	}
}
