package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

// UnmarshalJSON also accepts "imagen" which older admin consoles still send
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video":
		*k = KindVideo
	case "image", "imagen":
		*k = KindImage
	default:
		return fmt.Errorf("unknown media kind %q", s)
	}
	return nil
}

// MediaItem is a single entry in the display carousel. Exactly one of File
// (a reference into local storage) or URL (an external link) should be set.
type MediaItem struct {
	ID              int64            `db:"id" json:"id"`
	Title           string           `db:"title" json:"title"`
	Kind            Kind             `db:"kind" json:"kind"`
	File            string           `db:"file" json:"file"`
	URL             string           `db:"url" json:"url"`
	Order           int              `db:"display_order" json:"order"`
	Active          bool             `db:"active" json:"active"`
	DominantColours SerializedColors `db:"dominant_colours" json:"dominant_colours"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// HasSource reports whether the item points at anything at all
func (m MediaItem) HasSource() bool {
	return strings.TrimSpace(m.File) != "" || strings.TrimSpace(m.URL) != ""
}

type MediaInput struct {
	Title           string           `json:"title"`
	Kind            Kind             `json:"kind"`
	File            string           `json:"file"`
	URL             string           `json:"url"`
	Order           int              `json:"order"`
	Active          bool             `json:"active"`
	DominantColours SerializedColors `json:"dominant_colours,omitempty"`
}
