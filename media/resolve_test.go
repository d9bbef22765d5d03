package media

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolvePage_OpenGraphVideo(t *testing.T) {
	srv := pageServer(t, `<html><head>
		<meta property="og:title" content="Welcome">
		<meta property="og:video:url" content="/media/welcome.mp4">
	</head><body></body></html>`)

	got, err := ResolvePage(context.Background(), srv.Client(), srv.URL+"/videos/welcome")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/media/welcome.mp4", got)
}

func TestResolvePage_YouTubeIframe(t *testing.T) {
	srv := pageServer(t, `<html><body>
		<iframe src="https://maps.example/embed"></iframe>
		<iframe src="https://www.youtube-nocookie.com/embed/abc123?rel=0"></iframe>
	</body></html>`)

	got, err := ResolvePage(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube-nocookie.com/embed/abc123?rel=0", got)
}

func TestResolvePage_NothingPlayable(t *testing.T) {
	srv := pageServer(t, `<html><head><meta property="og:video" content="https://video.example/player?id=9"></head></html>`)

	_, err := ResolvePage(context.Background(), srv.Client(), srv.URL)
	assert.ErrorIs(t, err, ErrUnresolvable)
}

func TestResolvePage_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := ResolvePage(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnresolvable)
}
