package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/marcus-crane/lobby/db"
	"github.com/marcus-crane/lobby/models"
	"github.com/marcus-crane/lobby/shared"
)

type Publisher interface {
	PublishJSON(stream, event string, payload any) error
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PageResolver turns a webpage link into a playable video link
type PageResolver func(ctx context.Context, pageURL string) (string, error)

type MediaSystem struct {
	State     []models.MediaItem
	store     db.Store
	publisher Publisher
	resolve   PageResolver
	m         sync.RWMutex
}

func NewMediaSystem(store db.Store, publisher Publisher) *MediaSystem {
	return &MediaSystem{
		State:     []models.MediaItem{},
		store:     store,
		publisher: publisher,
	}
}

// EnablePageResolution makes create and update try to find the video behind
// links that are neither a hosting platform link nor a direct file.
func (ms *MediaSystem) EnablePageResolution(client *http.Client) {
	ms.resolve = func(ctx context.Context, pageURL string) (string, error) {
		return ResolvePage(ctx, client, pageURL)
	}
}

func Validate(in models.MediaInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "the title is required"}
	}
	if in.Kind != models.KindVideo && in.Kind != models.KindImage {
		return &ValidationError{Field: "kind", Message: "kind must be video or image"}
	}
	hasFile := strings.TrimSpace(in.File) != ""
	hasURL := strings.TrimSpace(in.URL) != ""
	if hasFile == hasURL {
		return &ValidationError{Field: "file", Message: "exactly one of file or url must be set"}
	}
	return nil
}

func (ms *MediaSystem) Snapshot() []models.MediaItem {
	ms.m.RLock()
	defer ms.m.RUnlock()
	out := make([]models.MediaItem, len(ms.State))
	copy(out, ms.State)
	return out
}

func (ms *MediaSystem) Get(ctx context.Context, id int64) (models.MediaItem, error) {
	return ms.store.GetMedia(ctx, id)
}

func (ms *MediaSystem) Create(ctx context.Context, in models.MediaInput) (models.MediaItem, error) {
	if err := Validate(in); err != nil {
		return models.MediaItem{}, err
	}
	item, err := ms.store.CreateMedia(ctx, ms.prepare(ctx, in))
	if err != nil {
		return item, err
	}
	slog.Info("Created media item", slog.Int64("media_id", item.ID), slog.String("kind", string(item.Kind)))
	ms.refreshAndBroadcast(ctx)
	return item, nil
}

func (ms *MediaSystem) Update(ctx context.Context, id int64, in models.MediaInput) (models.MediaItem, error) {
	if err := Validate(in); err != nil {
		return models.MediaItem{}, err
	}
	item, err := ms.store.UpdateMedia(ctx, id, ms.prepare(ctx, in))
	if err != nil {
		return item, err
	}
	ms.refreshAndBroadcast(ctx)
	return item, nil
}

func (ms *MediaSystem) Delete(ctx context.Context, id int64) error {
	if err := ms.store.DeleteMedia(ctx, id); err != nil {
		return err
	}
	slog.Info("Deleted media item", slog.Int64("media_id", id))
	ms.refreshAndBroadcast(ctx)
	return nil
}

func (ms *MediaSystem) RefreshState(ctx context.Context) (bool, error) {
	items, err := ms.store.ListMedia(ctx)
	if err != nil {
		return false, err
	}

	ms.m.Lock()
	defer ms.m.Unlock()

	changed := !reflect.DeepEqual(ms.State, items)
	ms.State = items

	return changed, nil
}

func (ms *MediaSystem) Sync(ctx context.Context) {
	changed, err := ms.RefreshState(ctx)
	if err != nil {
		slog.Error("Failed to refresh media", slog.Any("error", err))
		return
	}
	if changed {
		ms.Broadcast()
	}
}

func (ms *MediaSystem) Broadcast() {
	payload := models.MediaSnapshot{Media: ms.Snapshot()}
	if err := ms.publisher.PublishJSON(shared.STREAM_MEDIA, shared.EVENT_MEDIA_UPDATED, payload); err != nil {
		slog.Error("Failed to broadcast media", slog.Any("error", err))
	}
}

func (ms *MediaSystem) refreshAndBroadcast(ctx context.Context) {
	if _, err := ms.RefreshState(ctx); err != nil {
		slog.Error("Failed to refresh media", slog.Any("error", err))
		return
	}
	ms.Broadcast()
}

// prepare trims the input and, when enabled, swaps a webpage link for the
// video it presents. A page that can't be resolved is stored as is and the
// display will skip it.
func (ms *MediaSystem) prepare(ctx context.Context, in models.MediaInput) models.MediaInput {
	in.Title = strings.TrimSpace(in.Title)
	in.File = strings.TrimSpace(in.File)
	in.URL = strings.TrimSpace(in.URL)
	if in.DominantColours == nil {
		in.DominantColours = models.SerializedColors{}
	}

	if ms.resolve == nil || in.Kind != models.KindVideo || in.URL == "" {
		return in
	}
	if IsEmbeddable(in.URL) || IsDirectFile(in.URL) {
		return in
	}
	resolved, err := ms.resolve(ctx, in.URL)
	if err != nil {
		slog.Warn("Failed to resolve media page", slog.String("url", in.URL), slog.Any("error", err))
		return in
	}
	slog.Info("Resolved media page", slog.String("url", in.URL), slog.String("resolved", resolved))
	in.URL = resolved
	return in
}
