package api

import (
	"encoding/json"
	"errors"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/server"
)

func (s *Api) openHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.OpenParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_OPEN, nil, err
	}
	if m.ID == "" {
		return common.UPDATE_OPEN, nil, errors.New("id is required")
	}
	path, err := s.sched.OpenTask(m.ID, m.Folder)
	if err != nil {
		return common.UPDATE_OPEN, nil, err
	}
	return common.UPDATE_OPEN, &common.OpenResponse{Path: path}, nil
}
