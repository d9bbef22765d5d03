package display

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/lobby/models"
)

const testBase = "http://lobby.test"

type fakeTimer struct {
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() {
	t.stopped = true
}

// fakeScheduler runs everything on the test goroutine. Time only moves when
// Advance is called and timers fire in deadline order.
type fakeScheduler struct {
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.seq++
	t := &fakeTimer{at: s.now + d, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Post(fn func()) bool {
	fn()
	return true
}

func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var next *fakeTimer
		for _, t := range s.timers {
			if t.stopped || t.at > target {
				continue
			}
			if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.stopped = true
		s.now = next.at
		next.fn()
	}
	s.now = target
}

func (s *fakeScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type surfaceCall struct {
	Op  string
	Arg string
	IDs []string
}

type recordingSurface struct {
	calls   []surfaceCall
	playErr error
}

func (r *recordingSurface) ShowImage(src string) {
	r.calls = append(r.calls, surfaceCall{Op: "show_image", Arg: src})
}

func (r *recordingSurface) LoadVideo(src string) {
	r.calls = append(r.calls, surfaceCall{Op: "load_video", Arg: src})
}

func (r *recordingSurface) PlayVideo() error {
	r.calls = append(r.calls, surfaceCall{Op: "play_video"})
	return r.playErr
}

func (r *recordingSurface) MountEmbed(key string, ids []string) {
	r.calls = append(r.calls, surfaceCall{Op: "mount_embed", Arg: key, IDs: ids})
}

func (r *recordingSurface) ShowEmbed(id string) {
	r.calls = append(r.calls, surfaceCall{Op: "show_embed", Arg: id})
}

func (r *recordingSurface) Clear() {
	r.calls = append(r.calls, surfaceCall{Op: "clear"})
}

func (r *recordingSurface) count(op string) int {
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (r *recordingSurface) last(op string) surfaceCall {
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].Op == op {
			return r.calls[i]
		}
	}
	return surfaceCall{}
}

type fakeChannel struct {
	handlers  map[string]func(event string, data []byte)
	listeners map[int]func(ConnState)
	nextID    int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		handlers:  map[string]func(string, []byte){},
		listeners: map[int]func(ConnState){},
	}
}

func (f *fakeChannel) Subscribe(stream string, handler func(event string, data []byte)) Subscription {
	f.handlers[stream] = handler
	return subscriptionFunc(func() { delete(f.handlers, stream) })
}

func (f *fakeChannel) OnConnectionChange(listener func(ConnState)) Subscription {
	f.nextID++
	id := f.nextID
	f.listeners[id] = listener
	return subscriptionFunc(func() { delete(f.listeners, id) })
}

func (f *fakeChannel) push(t *testing.T, stream, event string, payload any) {
	t.Helper()
	var data []byte
	switch p := payload.(type) {
	case string:
		data = []byte(p)
	default:
		var err error
		data, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	if h, ok := f.handlers[stream]; ok {
		h(event, data)
	}
}

func (f *fakeChannel) setState(s ConnState) {
	for _, l := range f.listeners {
		l(s)
	}
}

type fakeFetcher struct {
	patients     []models.Patient
	media        []models.MediaItem
	err          error
	patientCalls int
	mediaCalls   int
}

func (f *fakeFetcher) GetPatients(ctx context.Context) ([]models.Patient, error) {
	f.patientCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.patients, nil
}

func (f *fakeFetcher) GetMedia(ctx context.Context) ([]models.MediaItem, error) {
	f.mediaCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.media, nil
}

func makePatients(n int) []models.Patient {
	stages := []string{
		models.StagePreparation,
		models.StageSurgery,
		models.StageRecovery,
		models.StageHospitalisation,
		models.StageDischarged,
	}
	out := make([]models.Patient, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Patient{
			ID:    int64(i),
			Name:  "P" + string(rune('0'+i%10)),
			Stage: stages[(i-1)%len(stages)],
		})
	}
	return out
}

func ids(patients []models.Patient) []int64 {
	out := make([]int64, 0, len(patients))
	for _, p := range patients {
		out = append(out, p.ID)
	}
	return out
}

func picture(id int64, order int) models.MediaItem {
	return models.MediaItem{ID: id, Title: "img", Kind: models.KindImage, File: "img" + string(rune('a'+id%26)) + ".png", Order: order, Active: true}
}

func localVideo(id int64, order int, file string) models.MediaItem {
	return models.MediaItem{ID: id, Title: "vid", Kind: models.KindVideo, File: file, Order: order, Active: true}
}

func linkedVideo(id int64, order int, url string) models.MediaItem {
	return models.MediaItem{ID: id, Title: "link", Kind: models.KindVideo, URL: url, Order: order, Active: true}
}

func youtube(id int64, order int, videoID string) models.MediaItem {
	return linkedVideo(id, order, "https://www.youtube.com/watch?v="+videoID)
}
