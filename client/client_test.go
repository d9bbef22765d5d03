package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/lobby/models"
	"github.com/marcus-crane/lobby/shared"
	"github.com/marcus-crane/lobby/utils"
)

const apiBase = "http://lobby.test"

func TestGetPatients(t *testing.T) {
	defer gock.Off()

	gock.New(apiBase).
		Get("/api/patients").
		MatchHeader("Authorization", "^Bearer display-token$").
		MatchHeader("User-Agent", shared.USER_AGENT).
		Reply(200).
		JSON(map[string]any{"patients": []map[string]any{
			{"id": 1, "name": "Ana", "stage": "cirugia"},
			{"id": 2, "name": "Luis", "stage": "alta"},
		}})

	c := NewClient(apiBase+"/", "display-token", &http.Client{
		Transport: &utils.UARoundtripper{RT: gock.NewTransport()},
	})

	patients, err := c.GetPatients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Patient{
		{ID: 1, Name: "Ana", Stage: "cirugia"},
		{ID: 2, Name: "Luis", Stage: "alta"},
	}, patients)
	assert.True(t, gock.IsDone())
}

func TestGetMedia_MissingListIsEmpty(t *testing.T) {
	defer gock.Off()

	gock.New(apiBase).
		Get("/api/media").
		Reply(200).
		JSON(map[string]any{})

	c := NewClient(apiBase, "", nil)
	gock.InterceptClient(c.http)

	items, err := c.GetMedia(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGet_BadStatusCode(t *testing.T) {
	defer gock.Off()

	gock.New(apiBase).
		Get("/api/patients").
		Reply(401).
		JSON(map[string]string{"error": "missing token"})

	c := NewClient(apiBase, "", nil)
	gock.InterceptClient(c.http)

	_, err := c.GetPatients(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "missing token")
}

func TestGet_BadBody(t *testing.T) {
	defer gock.Off()

	gock.New(apiBase).
		Get("/api/media").
		Reply(200).
		BodyString("<html>")

	c := NewClient(apiBase, "", nil)
	gock.InterceptClient(c.http)

	_, err := c.GetMedia(context.Background())
	assert.ErrorContains(t, err, "failed to decode")
}

func TestGet_RespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, "", srv.Client()).GetPatients(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
