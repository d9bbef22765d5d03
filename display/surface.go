package display

import (
	"encoding/json"
	"log/slog"

	"github.com/r3labs/sse/v2"

	"github.com/marcus-crane/lobby/shared"
)

// Surface is the long-lived thing media is shown on. Implementations must
// treat every call as an update to what is already mounted, never as a
// reason to tear it down.
type Surface interface {
	ShowImage(src string)
	// LoadVideo swaps the source of the video element in place
	LoadVideo(src string)
	// PlayVideo starts the loaded video from wherever it is. An ended video
	// restarts from the beginning.
	PlayVideo() error
	// MountEmbed (re)creates the embedded player with ids as its playlist.
	// An empty key removes it.
	MountEmbed(key string, ids []string)
	// ShowEmbed cues id on the already mounted embedded player
	ShowEmbed(id string)
	Clear()
}

type SurfaceCommand struct {
	Op  string   `json:"op"`
	Src string   `json:"src,omitempty"`
	Key string   `json:"key,omitempty"`
	IDs []string `json:"ids,omitempty"`
	ID  string   `json:"id,omitempty"`
}

// BroadcastSurface hands surface commands to the kiosk renderer over its own
// SSE stream. The renderer does the actual DOM work.
type BroadcastSurface struct {
	server *sse.Server
}

func NewBroadcastSurface(server *sse.Server) *BroadcastSurface {
	if !server.StreamExists(shared.STREAM_SURFACE) {
		server.CreateStream(shared.STREAM_SURFACE)
	}
	return &BroadcastSurface{server: server}
}

func (bs *BroadcastSurface) publish(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode surface event", slog.String("event", event), slog.Any("error", err))
		return
	}
	bs.server.Publish(shared.STREAM_SURFACE, &sse.Event{
		Event: []byte(event),
		Data:  data,
	})
}

func (bs *BroadcastSurface) ShowImage(src string) {
	bs.publish(shared.EVENT_SURFACE_COMMAND, SurfaceCommand{Op: "show_image", Src: src})
}

func (bs *BroadcastSurface) LoadVideo(src string) {
	bs.publish(shared.EVENT_SURFACE_COMMAND, SurfaceCommand{Op: "load_video", Src: src})
}

// PlayVideo can't see the renderer's autoplay policy from here. Rejections
// come back as a missing ended callback and are unlocked by interaction.
func (bs *BroadcastSurface) PlayVideo() error {
	bs.publish(shared.EVENT_SURFACE_COMMAND, SurfaceCommand{Op: "play_video"})
	return nil
}

func (bs *BroadcastSurface) MountEmbed(key string, ids []string) {
	bs.publish(shared.EVENT_SURFACE_COMMAND, SurfaceCommand{Op: "mount_embed", Key: key, IDs: ids})
}

func (bs *BroadcastSurface) ShowEmbed(id string) {
	bs.publish(shared.EVENT_SURFACE_COMMAND, SurfaceCommand{Op: "show_embed", ID: id})
}

func (bs *BroadcastSurface) Clear() {
	bs.publish(shared.EVENT_SURFACE_COMMAND, SurfaceCommand{Op: "clear"})
}

func (bs *BroadcastSurface) PublishView(view View) {
	bs.publish(shared.EVENT_VIEW, view)
}
