package api

import (
	"encoding/json"
	"net"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/server"
)

// Tasks returns the submission history as snapshots.
func (s *Api) Tasks() *common.ListResponse {
	return &common.ListResponse{Tasks: s.sched.Snapshots()}
}

// Count returns the number of active plus queued tasks.
func (s *Api) Count() int {
	return s.sched.GetDownloadingCount()
}

func (s *Api) listHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	return common.UPDATE_LIST, s.Tasks(), nil
}

func (s *Api) countHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	return common.UPDATE_COUNT, &common.CountResponse{Count: s.Count()}, nil
}

// attachHandler subscribes the connection to pushed progress updates.
// An empty id attaches to every task; a concrete id must name a known
// task.
func (s *Api) attachHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.TaskIDParams
	if len(body) > 0 {
		if err := json.Unmarshal(body, &m); err != nil {
			return common.UPDATE_ATTACH, nil, err
		}
	}
	if m.ID != "" {
		if _, err := s.snapshotByID(m.ID); err != nil {
			return common.UPDATE_ATTACH, nil, err
		}
	}
	pool.AddConnections(m.ID, []net.Conn{sconn.Conn})
	return common.UPDATE_ATTACH, s.Tasks(), nil
}
