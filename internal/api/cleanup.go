package api

import (
	"encoding/json"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/server"
)

// cleanUpHandler drops all daemon-side task state. Clients call it when
// a session ends so the next session starts from an empty history.
func (s *Api) cleanUpHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	s.sched.CleanUp()
	s.log.Info("task history cleaned up")
	return common.UPDATE_CLEAN_UP, &common.OkResponse{}, nil
}
