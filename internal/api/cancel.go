package api

import (
	"encoding/json"
	"errors"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/server"
)

// Cancel cancels a task by id.
func (s *Api) Cancel(id string) error {
	if _, err := s.snapshotByID(id); err != nil {
		return err
	}
	s.sched.CancelTask(id)
	return nil
}

// CancelAll cancels every queued and active task.
func (s *Api) CancelAll() {
	s.sched.CancelAllTasks()
}

func (s *Api) cancelHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.TaskIDParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_CANCEL, nil, err
	}
	if m.ID == "" {
		return common.UPDATE_CANCEL, nil, errors.New("id is required")
	}
	if err := s.Cancel(m.ID); err != nil {
		return common.UPDATE_CANCEL, nil, err
	}
	return common.UPDATE_CANCEL, &common.OkResponse{}, nil
}

func (s *Api) cancelAllHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	s.CancelAll()
	return common.UPDATE_CANCEL_ALL, &common.OkResponse{}, nil
}
