package api

import (
	"encoding/json"
	"errors"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/server"
)

// Redownload re-queues a failed or canceled task from history.
func (s *Api) Redownload(id string) error {
	if _, err := s.snapshotByID(id); err != nil {
		return err
	}
	s.sched.ReDownloadTask(id)
	return nil
}

// RedownloadAll re-queues every failed or canceled history entry.
func (s *Api) RedownloadAll() {
	s.sched.ReDownloadAllTasks()
}

func (s *Api) redownloadHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.TaskIDParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_REDOWNLOAD, nil, err
	}
	if m.ID == "" {
		return common.UPDATE_REDOWNLOAD, nil, errors.New("id is required")
	}
	if err := s.Redownload(m.ID); err != nil {
		return common.UPDATE_REDOWNLOAD, nil, err
	}
	return common.UPDATE_REDOWNLOAD, &common.OkResponse{}, nil
}

func (s *Api) redownloadAllHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	s.RedownloadAll()
	return common.UPDATE_REDOWNLOAD_ALL, &common.OkResponse{}, nil
}
