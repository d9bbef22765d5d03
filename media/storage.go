package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/marcus-crane/lobby/models"
	"github.com/marcus-crane/lobby/shared"
	"github.com/marcus-crane/lobby/utils"
)

const maxUploadBytes = 512 << 20

var ErrUnsupportedUpload = errors.New("unsupported file type")

type StoredFile struct {
	Name            string
	Kind            models.Kind
	DominantColours models.SerializedColors
}

// Storage writes uploads into a flat directory under random names. Nothing a
// user sends decides where it lands on disk.
type Storage struct {
	Dir string
}

func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Storage{Dir: dir}, nil
}

func (s *Storage) Save(originalName string, r io.Reader) (StoredFile, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return StoredFile{}, err
	}
	if len(body) > maxUploadBytes {
		return StoredFile{}, fmt.Errorf("upload exceeds %d bytes", maxUploadBytes)
	}

	stored := StoredFile{}
	if ext := utils.ImageExtension(body); ext != "" {
		stored.Kind = models.KindImage
		stored.Name = fmt.Sprintf("%s.%s", uuid.NewString(), ext)
		colours, err := utils.ExtractDominantColours(body)
		if err != nil {
			// webp doesn't decode with the stdlib, it's still a fine upload
			slog.Debug("Failed to extract dominant colours", slog.String("file", originalName), slog.Any("error", err))
		}
		stored.DominantColours = colours
	} else {
		ext := strings.ToLower(filepath.Ext(originalName))
		if !directFileExtensions[ext] {
			return StoredFile{}, ErrUnsupportedUpload
		}
		stored.Kind = models.KindVideo
		stored.Name = uuid.NewString() + ext
	}

	if err := os.WriteFile(filepath.Join(s.Dir, stored.Name), body, 0o644); err != nil {
		return StoredFile{}, err
	}
	slog.Info("Stored upload",
		slog.String("original_name", originalName),
		slog.String("file", stored.Name),
		slog.String("kind", string(stored.Kind)))
	return stored, nil
}

func (s *Storage) Handler() http.Handler {
	return http.StripPrefix(shared.STORAGE_PREFIX, http.FileServer(http.Dir(s.Dir)))
}
