package display

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/marcus-crane/lobby/models"
	"github.com/marcus-crane/lobby/shared"
)

const (
	DisconnectRefetchDelay = 2 * time.Second
	ReconnectRefetchDelay  = time.Second
)

type Fetcher interface {
	GetPatients(ctx context.Context) ([]models.Patient, error)
	GetMedia(ctx context.Context) ([]models.MediaItem, error)
}

type Options struct {
	// PublicBase is where the API serves stored files from
	PublicBase     string
	TrustedOrigins []string
}

// Display ties the roster rotation and the media carousel to the push
// channel. Every method must be called on the loop goroutine.
type Display struct {
	sched      Scheduler
	channel    Channel
	fetcher    Fetcher
	publicBase string

	roster   *RosterStore
	rotation *RotationController
	playlist *PlaylistStore
	carousel *Carousel

	mounted         bool
	connected       bool
	everConnected   bool
	unlocked        bool
	loadingPatients bool
	loadingMedia    bool
	// bumped on every roster or playlist replacement and fetch, so that a
	// slow fetch can't overwrite something newer
	patientsGen int
	mediaGen    int

	disconnectTimer Timer
	reconnectTimer  Timer
	subs            []Subscription
	ctx             context.Context
	cancel          context.CancelFunc

	spawn  func(func())
	onView func(View)
}

func New(sched Scheduler, channel Channel, fetcher Fetcher, surface Surface, opts Options) *Display {
	roster := &RosterStore{}
	playlist := &PlaylistStore{}
	d := &Display{
		sched:      sched,
		channel:    channel,
		fetcher:    fetcher,
		publicBase: opts.PublicBase,
		roster:     roster,
		rotation:   NewRotationController(roster, sched),
		playlist:   playlist,
		carousel:   NewCarousel(playlist, sched, surface, opts.TrustedOrigins),
		spawn:      func(fn func()) { go fn() },
	}
	d.rotation.OnChange = d.publish
	d.carousel.OnChange = d.publish
	return d
}

// OnView registers fn to receive the view after every change
func (d *Display) OnView(fn func(View)) {
	d.onView = fn
}

func (d *Display) Mount(ctx context.Context) {
	if d.mounted {
		return
	}
	d.mounted = true
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.loadingPatients = true
	d.loadingMedia = true

	// the connection listener goes first so it is also the first to go on unmount
	d.subs = append(d.subs,
		d.channel.OnConnectionChange(func(s ConnState) {
			d.sched.Post(func() { d.handleConnection(s) })
		}),
		d.channel.Subscribe(shared.STREAM_PATIENTS, func(event string, data []byte) {
			d.sched.Post(func() { d.handlePatientsEvent(event, data) })
		}),
		d.channel.Subscribe(shared.STREAM_MEDIA, func(event string, data []byte) {
			d.sched.Post(func() { d.handleMediaEvent(event, data) })
		}),
	)

	slog.Info("Display mounted")
	d.Refetch()
}

// Unmount releases everything Mount set up. It is safe to call more than once.
func (d *Display) Unmount() {
	if !d.mounted {
		return
	}
	d.mounted = false
	for _, s := range d.subs {
		s.Unsubscribe()
	}
	d.subs = nil
	stopTimer(&d.disconnectTimer)
	stopTimer(&d.reconnectTimer)
	d.rotation.Stop()
	d.carousel.Stop()
	d.cancel()
	slog.Info("Display unmounted")
}

func (d *Display) Mounted() bool {
	return d.mounted
}

// Refetch pulls both lists from the API. It is the fallback for anything the
// push channel may have missed.
func (d *Display) Refetch() {
	if !d.mounted {
		return
	}
	d.fetchPatients()
	d.fetchMedia()
}

func (d *Display) fetchPatients() {
	d.patientsGen++
	gen, ctx := d.patientsGen, d.ctx
	d.spawn(func() {
		patients, err := d.fetcher.GetPatients(ctx)
		d.sched.Post(func() {
			if !d.mounted {
				return
			}
			if err != nil {
				slog.Warn("Failed to fetch patients, keeping what we have", slog.Any("error", err))
				return
			}
			if gen != d.patientsGen {
				slog.Debug("Dropping superseded patients fetch")
				return
			}
			d.applyPatients(patients)
		})
	})
}

func (d *Display) fetchMedia() {
	d.mediaGen++
	gen, ctx := d.mediaGen, d.ctx
	d.spawn(func() {
		items, err := d.fetcher.GetMedia(ctx)
		d.sched.Post(func() {
			if !d.mounted {
				return
			}
			if err != nil {
				slog.Warn("Failed to fetch media, keeping what we have", slog.Any("error", err))
				return
			}
			if gen != d.mediaGen {
				slog.Debug("Dropping superseded media fetch")
				return
			}
			d.applyMedia(items)
		})
	})
}

func (d *Display) applyPatients(patients []models.Patient) {
	d.roster.Replace(patients)
	d.loadingPatients = false
	d.rotation.Sync()
	d.publish()
}

func (d *Display) applyMedia(items []models.MediaItem) {
	d.playlist.Replace(BuildPlaylist(items, d.publicBase))
	d.loadingMedia = false
	// Reconcile publishes once it has settled on a cursor
	d.carousel.Reconcile()
}

func (d *Display) handlePatientsEvent(event string, data []byte) {
	if !d.mounted || event == shared.EVENT_HEARTBEAT {
		return
	}
	patients, err := decodeList[models.Patient](data, "patients")
	if err != nil {
		slog.Warn("Received malformed patients event, refetching", slog.String("event", event), slog.Any("error", err))
		d.fetchPatients()
		return
	}
	d.patientsGen++
	d.applyPatients(patients)
}

func (d *Display) handleMediaEvent(event string, data []byte) {
	if !d.mounted || event == shared.EVENT_HEARTBEAT {
		return
	}
	items, err := decodeList[models.MediaItem](data, "media")
	if err != nil {
		slog.Warn("Received malformed media event, refetching", slog.String("event", event), slog.Any("error", err))
		d.fetchMedia()
		return
	}
	d.mediaGen++
	d.applyMedia(items)
}

func (d *Display) handleConnection(state ConnState) {
	if !d.mounted {
		return
	}
	d.connected = state == Connected
	slog.Info("Push channel state changed", slog.String("state", state.String()))
	switch state {
	case Connected:
		if !d.everConnected {
			d.everConnected = true
			d.publish()
			return
		}
		d.debounce(&d.reconnectTimer, ReconnectRefetchDelay)
	case Disconnected:
		d.debounce(&d.disconnectTimer, DisconnectRefetchDelay)
	}
	d.publish()
}

// debounce replaces whatever refetch is pending in slot
func (d *Display) debounce(slot *Timer, delay time.Duration) {
	stopTimer(slot)
	*slot = d.sched.AfterFunc(delay, func() {
		*slot = nil
		d.Refetch()
	})
}

func (d *Display) VideoEnded(src string) {
	if d.mounted {
		d.carousel.HandleVideoEnded(src)
	}
}

func (d *Display) PlayerMessage(origin string, raw []byte) {
	if d.mounted {
		d.carousel.HandlePlayerMessage(origin, raw)
	}
}

// Interact records the one time user gesture that unlocks sound
func (d *Display) Interact() {
	if d.unlocked {
		return
	}
	d.unlocked = true
	d.carousel.Interact()
	d.publish()
}

func (d *Display) publish() {
	if d.onView != nil {
		d.onView(d.View())
	}
}

func stopTimer(slot *Timer) {
	if *slot != nil {
		(*slot).Stop()
		*slot = nil
	}
}

var errNoList = errors.New("payload carries no list")

// decodeList pulls the list under key out of a snapshot event. A missing or
// null list is an error, an empty one is not.
func decodeList[T any](data []byte, key string) ([]T, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	raw, ok := payload[key]
	if !ok || string(raw) == "null" {
		return nil, errNoList
	}
	list := []T{}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *Display) Rotation() *RotationController {
	return d.rotation
}

func (d *Display) Carousel() *Carousel {
	return d.carousel
}
