package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, "png", ImageExtension(solidPNG(t, color.White)))
	assert.Equal(t, "", ImageExtension([]byte("not an image at all")))
}

func TestExtractDominantColours_SolidImage(t *testing.T) {
	colours, err := ExtractDominantColours(solidPNG(t, color.RGBA{R: 0xff, A: 0xff}))
	require.NoError(t, err)
	require.NotEmpty(t, colours)
	assert.Equal(t, "#ff0000", colours[0])
}

func TestExtractDominantColours_Garbage(t *testing.T) {
	_, err := ExtractDominantColours([]byte("nope"))
	assert.Error(t, err)
}
