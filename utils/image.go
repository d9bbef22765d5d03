package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	color_extractor "github.com/marekm4/color-extractor"
)

// ImageExtension maps sniffed image content to the extension we store it under.
// Anything that isn't an image we know how to decode returns an empty string.
func ImageExtension(body []byte) string {
	switch http.DetectContentType(body) {
	case "image/jpeg":
		return "jpeg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	}
	return ""
}

// ExtractDominantColours decodes an image and returns its dominant colours as hex strings
func ExtractDominantColours(body []byte) ([]string, error) {
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return []string{}, err
	}
	var domColours []string
	colours := color_extractor.ExtractColors(img)
	for _, c := range colours {
		domColours = append(domColours, colorToHexString(c))
	}
	return domColours, nil
}

func colorToHexString(c color.Color) string {
	r, g, b, a := c.RGBA()
	rgba := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
	return fmt.Sprintf("#%.2x%.2x%.2x", rgba.R, rgba.G, rgba.B)
}
