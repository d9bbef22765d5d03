package display

import (
	"fmt"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"

	"github.com/marcus-crane/lobby/media"
	"github.com/marcus-crane/lobby/models"
)

// Entry is one eligible playlist item together with how it plays
type Entry struct {
	Item models.MediaItem
	media.Classification
}

// Same reports whether two entries would play exactly the same thing
func (e Entry) Same(other Entry) bool {
	return e.Item.ID == other.Item.ID && e.Source == other.Source && e.Class == other.Class
}

// BuildPlaylist keeps the active, playable items and orders them by their
// display order. Items sharing an order keep the order they arrived in.
func BuildPlaylist(items []models.MediaItem, publicBase string) []Entry {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if !item.Active || !item.HasSource() {
			continue
		}
		c := media.Classify(item, publicBase)
		if !c.Playable() {
			slog.Debug("Skipping unplayable media item",
				slog.Int64("media_id", item.ID),
				slog.String("url", item.URL))
			continue
		}
		entries = append(entries, Entry{Item: item, Classification: c})
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.Item.Order - b.Item.Order
	})
	return entries
}

type PlaylistStore struct {
	entries []Entry
}

func (s *PlaylistStore) Replace(entries []Entry) {
	s.entries = entries
}

func (s *PlaylistStore) Entries() []Entry {
	return s.entries
}

func (s *PlaylistStore) Len() int {
	return len(s.entries)
}

func (s *PlaylistStore) IndexOf(id int64) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool {
		return e.Item.ID == id
	})
}

func (s *PlaylistStore) IndexOfEmbed(embedID string) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool {
		return e.Class == media.ClassEmbedded && e.EmbedID == embedID
	})
}

// EmbedIDs is the ordered sub-sequence of embedded video ids. It is what the
// embedded player gets as its own internal playlist.
func EmbedIDs(entries []Entry) []string {
	ids := []string{}
	for _, e := range entries {
		if e.Class == media.ClassEmbedded {
			ids = append(ids, e.EmbedID)
		}
	}
	return ids
}

// EmbedKey identifies a particular embedded playlist. It changes if and only
// if the ordered list of ids changes.
func EmbedKey(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	h := xxhash.New()
	for _, id := range ids {
		h.WriteString(id)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
