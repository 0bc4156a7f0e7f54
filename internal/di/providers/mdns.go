package providers

import (
	"strconv"

	"github.com/samber/do/v2"

	"github.com/quillapp/quill-engine/internal/config"
	"github.com/quillapp/quill-engine/internal/logger"
	"github.com/quillapp/quill-engine/internal/mdns"
)

// MDNSServiceHandle wraps the mDNS service with Shutdownable.
type MDNSServiceHandle struct {
	Service *mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.Service != nil {
		h.Service.Stop()
	}
	return nil
}

// ProvideMDNSService provides LAN discovery advertisement. Failure to
// advertise is logged, not fatal; multicast is unavailable in many
// container setups.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	// Ensure the HTTP server is up before advertising it.
	_ = do.MustInvoke[*HTTPServerHandle](i)

	if !cfg.Server.Discovery {
		return &MDNSServiceHandle{}, nil
	}

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Warn("mDNS disabled: non-numeric server port", "port", cfg.Server.Port)
		return &MDNSServiceHandle{}, nil
	}

	service := mdns.NewService(log.Logger)
	if err := service.Start("", port); err != nil {
		log.Warn("mDNS advertisement failed to start", "error", err)
		return &MDNSServiceHandle{Service: service}, nil
	}
	return &MDNSServiceHandle{Service: service, started: true}, nil
}
