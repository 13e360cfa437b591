package coursecli

import (
	"encoding/json"

	"github.com/coursedl/coursedl/common"
)

// Handler processes a pushed daemon update. Implementations receive the
// raw JSON message and unmarshal it themselves.
type Handler interface {
	Handle(json.RawMessage) error
}

// ProgressHandler invokes a callback for every pushed progress update.
// Returning ErrDisconnect from the callback stops the listener.
type ProgressHandler struct {
	Callback func(*common.ProgressUpdate) error
}

// NewProgressHandler creates a handler for progress pushes.
func NewProgressHandler(callback func(*common.ProgressUpdate) error) *ProgressHandler {
	return &ProgressHandler{Callback: callback}
}

func (h *ProgressHandler) Handle(m json.RawMessage) error {
	var v common.ProgressUpdate
	if err := json.Unmarshal(m, &v); err != nil {
		return err
	}
	return h.Callback(&v)
}
