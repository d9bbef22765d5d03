package display

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus-crane/lobby/media"
)

const (
	ImageDwell = 10 * time.Second
	// ExternalVideoDwell caps direct file links. Their ended event comes from
	// a host we don't control so it isn't the only thing we wait for.
	ExternalVideoDwell = 30 * time.Second
	// EmbedHandoffTimeout is how long we wait for the embedded player to say
	// it moved on by itself before cueing the next item ourselves.
	EmbedHandoffTimeout = 5 * time.Second
)

type State int

const (
	StateEmpty State = iota
	StatePlayingImage
	StatePlayingNativeVideo
	StatePlayingEmbeddedVideo
)

func (s State) String() string {
	switch s {
	case StatePlayingImage:
		return "playing_image"
	case StatePlayingNativeVideo:
		return "playing_native_video"
	case StatePlayingEmbeddedVideo:
		return "playing_embedded_video"
	}
	return "empty"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateEmpty, StatePlayingImage, StatePlayingNativeVideo, StatePlayingEmbeddedVideo} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown carousel state %q", text)
}

// Carousel decides what is on screen and when to move on. Images advance on
// a dwell timer, native video on its ended signal and embedded video on
// messages from the embedded player, which runs its own playlist.
type Carousel struct {
	store   *PlaylistStore
	sched   Scheduler
	surface Surface
	trusted map[string]bool

	cursor  int
	state   State
	current *Entry
	dwell   Timer

	loadedSrc string
	embedKey  string
	embedIDs  []string
	// set when the embedded player is expected to move to this id by itself
	awaitingEmbed string

	OnChange func()
}

func NewCarousel(store *PlaylistStore, sched Scheduler, surface Surface, trustedOrigins []string) *Carousel {
	trusted := map[string]bool{}
	for _, o := range trustedOrigins {
		trusted[o] = true
	}
	return &Carousel{
		store:   store,
		sched:   sched,
		surface: surface,
		trusted: trusted,
	}
}

func (c *Carousel) Cursor() int {
	return c.cursor
}

func (c *Carousel) State() State {
	return c.state
}

func (c *Carousel) Current() (Entry, bool) {
	if c.current == nil {
		return Entry{}, false
	}
	return *c.current, true
}

func (c *Carousel) EmbedKey() string {
	return c.embedKey
}

func (c *Carousel) EmbedIDs() []string {
	return c.embedIDs
}

func (c *Carousel) LoadedSource() string {
	return c.loadedSrc
}

// Reconcile is called after the playlist store has been replaced. Whatever is
// playing keeps playing if it is still in the playlist unchanged.
func (c *Carousel) Reconcile() {
	entries := c.store.Entries()
	remounted := c.syncEmbed(entries)

	if len(entries) == 0 {
		c.stopDwell()
		c.cursor = 0
		c.current = nil
		c.awaitingEmbed = ""
		c.loadedSrc = ""
		if c.state != StateEmpty {
			c.state = StateEmpty
			c.surface.Clear()
		}
		c.changed()
		return
	}

	if c.current != nil {
		if idx := c.store.IndexOf(c.current.Item.ID); idx >= 0 {
			c.cursor = idx
		}
	}
	if c.cursor < 0 || c.cursor >= len(entries) {
		c.cursor = 0
	}

	next := entries[c.cursor]
	if c.current != nil && c.current.Same(next) {
		c.current = &next
		// a remount restarts the embed and a new neighbour changes what it hands over to
		if c.awaitingEmbed != "" && (remounted || c.embedHandoff() != c.awaitingEmbed) {
			c.cancelHandoff()
		}
		if remounted && next.Class == media.ClassEmbedded {
			c.surface.ShowEmbed(next.EmbedID)
		}
		c.changed()
		return
	}
	c.play()
}

// Advance moves the cursor on by one, wrapping at the end of the playlist
func (c *Carousel) Advance() {
	n := c.store.Len()
	if n == 0 {
		return
	}
	c.cursor = (c.cursor + 1) % n
	c.play()
}

// HandleVideoEnded is the native video element's ended signal. src is the
// source that ended, anything other than what we last loaded is stale.
func (c *Carousel) HandleVideoEnded(src string) {
	if c.state != StatePlayingNativeVideo || src != c.loadedSrc {
		slog.Debug("Ignoring stale ended signal", slog.String("src", src), slog.String("loaded", c.loadedSrc))
		return
	}
	c.Advance()
}

// HandlePlayerMessage takes raw messages from the embedded player. Messages
// from untrusted origins and ones we can't make sense of are dropped.
func (c *Carousel) HandlePlayerMessage(origin string, raw []byte) {
	if !c.trusted[origin] {
		slog.Debug("Ignoring player message from untrusted origin", slog.String("origin", origin))
		return
	}
	msg, ok := ParsePlayerMessage(raw)
	if !ok || c.state != StatePlayingEmbeddedVideo {
		return
	}

	if msg.VideoID != "" {
		c.nowPlaying(msg.VideoID)
	}
	if msg.HasState && msg.State == PlayerStateEnded {
		c.embedEnded()
	}
}

// nowPlaying keeps the cursor in line with what the embedded player says it
// is showing. The player is never touched here.
func (c *Carousel) nowPlaying(id string) {
	if id == c.awaitingEmbed {
		c.cancelHandoff()
	}
	if c.current != nil && c.current.EmbedID == id {
		return
	}
	idx := c.store.IndexOfEmbed(id)
	if idx < 0 {
		return
	}
	entry := c.store.Entries()[idx]
	c.cancelHandoff()
	c.cursor = idx
	c.current = &entry
	c.changed()
}

// embedEnded either waits for the embedded player to move on to the next
// item itself or advances. The wait is bounded by EmbedHandoffTimeout.
func (c *Carousel) embedEnded() {
	if c.current == nil || c.awaitingEmbed != "" {
		return
	}
	if id := c.embedHandoff(); id != "" {
		c.awaitingEmbed = id
		c.armDwell(EmbedHandoffTimeout)
		return
	}
	c.Advance()
}

// embedHandoff is the id the embedded player will move to by itself when the
// current item ends, or "" when the next carousel item isn't that one.
func (c *Carousel) embedHandoff() string {
	entries := c.store.Entries()
	if c.current == nil || len(entries) == 0 || c.current.Class != media.ClassEmbedded {
		return ""
	}
	next := entries[(c.cursor+1)%len(entries)]
	if next.Class == media.ClassEmbedded && next.EmbedID == c.embedSuccessor(c.current.EmbedID) {
		return next.EmbedID
	}
	return ""
}

func (c *Carousel) cancelHandoff() {
	if c.awaitingEmbed == "" {
		return
	}
	c.awaitingEmbed = ""
	c.stopDwell()
}

// AwaitingEmbed is the id the embedded player is expected to announce next
func (c *Carousel) AwaitingEmbed() string {
	return c.awaitingEmbed
}

// embedSuccessor is what the embedded player plays after id. It loops.
func (c *Carousel) embedSuccessor(id string) string {
	for i, e := range c.embedIDs {
		if e == id {
			return c.embedIDs[(i+1)%len(c.embedIDs)]
		}
	}
	return ""
}

// Interact is the one time gesture that lets the renderer play with sound
func (c *Carousel) Interact() {
	if c.state == StatePlayingNativeVideo {
		c.tryPlay()
	}
}

func (c *Carousel) Stop() {
	c.stopDwell()
}

func (c *Carousel) play() {
	c.stopDwell()
	c.awaitingEmbed = ""

	entry := c.store.Entries()[c.cursor]
	c.current = &entry

	switch entry.Class {
	case media.ClassImage:
		c.state = StatePlayingImage
		c.surface.ShowImage(entry.Source)
		c.armDwell(ImageDwell)
	case media.ClassNative:
		c.state = StatePlayingNativeVideo
		if entry.Source != c.loadedSrc {
			c.surface.LoadVideo(entry.Source)
			c.loadedSrc = entry.Source
		}
		c.tryPlay()
		if entry.External {
			c.armDwell(ExternalVideoDwell)
		}
	case media.ClassEmbedded:
		c.state = StatePlayingEmbeddedVideo
		c.surface.ShowEmbed(entry.EmbedID)
	}
	c.changed()
}

func (c *Carousel) tryPlay() {
	if err := c.surface.PlayVideo(); err != nil {
		slog.Debug("Playback was rejected", slog.String("src", c.loadedSrc), slog.Any("error", err))
	}
}

// syncEmbed remounts the embedded player only when its playlist changed
func (c *Carousel) syncEmbed(entries []Entry) bool {
	ids := EmbedIDs(entries)
	key := EmbedKey(ids)
	if key == c.embedKey {
		return false
	}
	c.embedKey = key
	c.embedIDs = ids
	c.surface.MountEmbed(key, ids)
	return true
}

func (c *Carousel) armDwell(d time.Duration) {
	c.dwell = c.sched.AfterFunc(d, func() {
		c.dwell = nil
		c.Advance()
	})
}

func (c *Carousel) stopDwell() {
	if c.dwell != nil {
		c.dwell.Stop()
		c.dwell = nil
	}
}

func (c *Carousel) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}
