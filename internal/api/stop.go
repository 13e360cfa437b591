package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/server"
)

// stopHandler shuts the daemon down. The shutdown is deferred briefly
// so the acknowledgement reaches the client first.
func (s *Api) stopHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	if s.shutdown == nil {
		return common.UPDATE_STOP, nil, errors.New("stop not supported")
	}
	s.log.Info("stop requested, shutting down")
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.shutdown()
	}()
	return common.UPDATE_STOP, &common.OkResponse{}, nil
}
