package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marcus-crane/lobby/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_SetsUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	res, err := NewHTTPClient().Get(ts.URL)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, shared.USER_AGENT, got)
}
