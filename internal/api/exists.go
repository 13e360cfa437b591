package api

import (
	"encoding/json"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/server"
	"github.com/coursedl/coursedl/pkg/courselib"
)

// Existence checks back the client-side "already downloaded, fetch
// again?" confirmation: they compare the would-be task against history
// without submitting anything.

func (s *Api) existsFileHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.AddFileParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_EXISTS_FILE, nil, err
	}
	t := courselib.NewFileTask(s.backend, m.Upload, m.Sync)
	return common.UPDATE_EXISTS_FILE, &common.ExistsResponse{
		Exists: s.sched.CheckTaskExists(t),
	}, nil
}

func (s *Api) existsSlidesHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.AddSlidesParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_EXISTS_SLIDES, nil, err
	}
	t := courselib.NewSlideTask(s.backend, m.Subject, m.ToPDF)
	return common.UPDATE_EXISTS_SLIDES, &common.ExistsResponse{
		Exists: s.sched.CheckTaskExists(t),
	}, nil
}
