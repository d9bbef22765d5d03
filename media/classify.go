package media

import (
	"net/url"
	"path"
	"strings"

	"github.com/marcus-crane/lobby/models"
	"github.com/marcus-crane/lobby/shared"
)

type Class string

const (
	ClassImage      Class = "image"
	ClassNative     Class = "native"
	ClassEmbedded   Class = "embedded"
	ClassUnplayable Class = "unplayable"
)

// Classification says how an item has to be presented. Source is the fully
// resolved URL the surface should load and EmbedID is only set for embedded video.
type Classification struct {
	Class    Class
	Source   string
	EmbedID  string
	External bool
}

func (c Classification) Playable() bool {
	return c.Class != ClassUnplayable
}

var directFileExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".ogg":  true,
	".ogv":  true,
	".mov":  true,
	".m4v":  true,
	".m3u8": true,
}

var embedHosts = map[string]bool{
	"youtube.com":              true,
	"www.youtube.com":          true,
	"m.youtube.com":            true,
	"youtu.be":                 true,
	"youtube-nocookie.com":     true,
	"www.youtube-nocookie.com": true,
}

// Classify decides how an item plays. publicBase is where the API serves
// local storage from and is only used for items that reference a stored file.
func Classify(item models.MediaItem, publicBase string) Classification {
	file := strings.TrimSpace(item.File)
	link := strings.TrimSpace(item.URL)

	if item.Kind == models.KindImage {
		switch {
		case file != "":
			return Classification{Class: ClassImage, Source: StorageURL(publicBase, file)}
		case link != "":
			return Classification{Class: ClassImage, Source: link, External: true}
		}
		return Classification{Class: ClassUnplayable}
	}

	if file != "" {
		return Classification{Class: ClassNative, Source: StorageURL(publicBase, file)}
	}
	if link == "" {
		return Classification{Class: ClassUnplayable}
	}
	if IsEmbeddable(link) {
		id := YouTubeID(link)
		if id == "" {
			return Classification{Class: ClassUnplayable, Source: link, External: true}
		}
		return Classification{Class: ClassEmbedded, Source: link, EmbedID: id, External: true}
	}
	if IsDirectFile(link) {
		return Classification{Class: ClassNative, Source: link, External: true}
	}
	return Classification{Class: ClassUnplayable, Source: link, External: true}
}

// StorageURL turns a stored file reference into something a browser can load.
// References that already look like URLs are returned untouched.
func StorageURL(publicBase, file string) string {
	if strings.HasPrefix(file, "http://") || strings.HasPrefix(file, "https://") {
		return file
	}
	base := strings.TrimSuffix(publicBase, "/")
	return base + shared.STORAGE_PREFIX + strings.TrimPrefix(file, "/")
}

func IsEmbeddable(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return embedHosts[strings.ToLower(u.Hostname())]
}

func IsDirectFile(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return directFileExtensions[strings.ToLower(path.Ext(u.Path))]
}

// YouTubeID pulls the video id out of the handful of URL shapes people paste
// in: watch?v=, shorts/, embed/ and youtu.be/ short links.
func YouTubeID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, s := range segments {
		if (s == "shorts" || s == "embed" || s == "live") && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	last := segments[len(segments)-1]
	switch last {
	case "watch", "shorts", "embed", "live":
		return ""
	}
	return last
}
