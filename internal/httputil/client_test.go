package httputil

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStandardClient(t *testing.T) {
	c := NewStandardClient(2 * time.Second)
	assert.Equal(t, 2*time.Second, c.Timeout)
	var _ HTTPClient = c
}

func TestMockHTTPClient(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusAccepted, `{"ok":true}`).AddErrorResponse(errors.New("refused"))

	req, err := http.NewRequest(http.MethodPost, "http://robot/api/command", strings.NewReader(`{"command":"STOP"}`))
	require.NoError(t, err)
	resp, err := mock.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"ok":true}`, string(body))

	req, _ = http.NewRequest(http.MethodGet, "http://robot/api/session", nil)
	_, err = mock.Do(req)
	assert.EqualError(t, err, "refused")

	req, _ = http.NewRequest(http.MethodGet, "http://robot/health", nil)
	resp, err = mock.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 3, mock.RequestCount())
	first, firstBody := mock.Request(0)
	require.NotNil(t, first)
	assert.Equal(t, "/api/command", first.URL.Path)
	assert.Equal(t, `{"command":"STOP"}`, firstBody)

	missing, _ := mock.Request(5)
	assert.Nil(t, missing)
}
