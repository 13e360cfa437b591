package api

import (
	"encoding/json"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/server"
)

// SetMaxConcurrent persists the concurrency bound and applies it to the
// running scheduler.
func (s *Api) SetMaxConcurrent(n int) error {
	if err := s.store.SetMaxConcurrent(n); err != nil {
		return err
	}
	s.sched.SetMaxConcurrent(n)
	return nil
}

func (s *Api) getConfigHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	settings, err := s.store.Settings()
	if err != nil {
		return common.UPDATE_GET_CONFIG, nil, err
	}
	return common.UPDATE_GET_CONFIG, &common.ConfigResponse{
		SavePath:      settings.SavePath,
		ToPDF:         settings.ToPDF,
		MaxConcurrent: settings.MaxConcurrent,
	}, nil
}

func (s *Api) setConfigHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.SetConfigParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_SET_CONFIG, nil, err
	}
	if m.SavePath != nil {
		if err := s.store.SetSavePath(*m.SavePath); err != nil {
			return common.UPDATE_SET_CONFIG, nil, err
		}
	}
	if m.ToPDF != nil {
		if err := s.store.SetToPDF(*m.ToPDF); err != nil {
			return common.UPDATE_SET_CONFIG, nil, err
		}
	}
	if m.MaxConcurrent != nil {
		if err := s.SetMaxConcurrent(*m.MaxConcurrent); err != nil {
			return common.UPDATE_SET_CONFIG, nil, err
		}
	}
	settings, err := s.store.Settings()
	if err != nil {
		return common.UPDATE_SET_CONFIG, nil, err
	}
	return common.UPDATE_SET_CONFIG, &common.ConfigResponse{
		SavePath:      settings.SavePath,
		ToPDF:         settings.ToPDF,
		MaxConcurrent: settings.MaxConcurrent,
	}, nil
}
