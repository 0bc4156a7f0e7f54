package mdns

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	service := NewService(logger)

	require.NotNil(t, service)
	assert.Nil(t, service.server, "server should be nil before Start")
}

func TestStop_WhenNotStartedIsSafe(t *testing.T) {
	service := NewService(nil)

	service.Stop()
	service.Stop()
}
