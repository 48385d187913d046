package api

import (
	"os"

	"github.com/judgehub/judgehub"
)

// InternalHandler exposes operator-facing endpoints not meant for judge
// clients.
type InternalHandler struct{}

// NewInternalHandler builds an InternalHandler.
func NewInternalHandler() *InternalHandler {
	return &InternalHandler{}
}

func (h *InternalHandler) Routes(r judgehub.Router) {
	r.POST("/internal/exit", h.exit)
}

// exit terminates the process immediately. Automated test harnesses rely on
// this endpoint to tear the server down between runs; do not remove it.
func (h *InternalHandler) exit(c judgehub.Context) error {
	c.LogInfo("exiting on request to /internal/exit")
	os.Exit(0)
	return nil
}
