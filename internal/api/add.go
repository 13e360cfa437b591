package api

import (
	"encoding/json"
	"errors"
	"net"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/server"
	"github.com/coursedl/coursedl/pkg/courselib"
)

var errAlreadyDownloaded = errors.New("task was already downloaded, submit with redownload to fetch again")

// AddFile submits a single-file download. An empty path falls back to
// the configured save directory, and a duplicate of a live history
// entry is rejected unless redownload is set.
func (s *Api) AddFile(p *common.AddFileParams) (*common.AddResponse, error) {
	u := p.Upload
	if u.Path == "" {
		settings, err := s.store.Settings()
		if err != nil {
			return nil, err
		}
		u.Path = settings.SavePath
	}
	t := courselib.NewFileTask(s.backend, u, p.Sync)
	if !p.Redownload && s.sched.CheckTaskExists(t) {
		return nil, errAlreadyDownloaded
	}
	s.sched.AddTask(t, p.Redownload)
	s.log.Info("queued file task %s (%s)", t.ID(), t.Name())
	return &common.AddResponse{
		ID:        t.ID(),
		Name:      t.Name(),
		Path:      t.Path(),
		TotalSize: t.TotalSize(),
	}, nil
}

// AddSlides submits a slide-deck download.
func (s *Api) AddSlides(p *common.AddSlidesParams) (*common.AddResponse, error) {
	sub := p.Subject
	if sub.Path == "" {
		settings, err := s.store.Settings()
		if err != nil {
			return nil, err
		}
		sub.Path = settings.SavePath
	}
	t := courselib.NewSlideTask(s.backend, sub, p.ToPDF)
	if !p.Redownload && s.sched.CheckTaskExists(t) {
		return nil, errAlreadyDownloaded
	}
	s.sched.AddTask(t, p.Redownload)
	s.log.Info("queued slide task %s (%s)", t.ID(), t.Name())
	return &common.AddResponse{
		ID:        t.ID(),
		Name:      t.Name(),
		Path:      t.Path(),
		TotalSize: t.TotalSize(),
	}, nil
}

func (s *Api) addFileHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.AddFileParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_ADD_FILE, nil, err
	}
	res, err := s.AddFile(&m)
	if err != nil {
		return common.UPDATE_ADD_FILE, nil, err
	}
	watchTask(pool, res.ID, sconn.Conn)
	return common.UPDATE_ADD_FILE, res, nil
}

// watchTask attaches the submitting connection as a watcher. A
// resubmitted id keeps its existing watchers.
func watchTask(pool *server.Pool, id string, conn net.Conn) {
	if pool.HasTask(id) {
		pool.AddConnections(id, []net.Conn{conn})
		return
	}
	pool.AddTask(id, conn)
}

func (s *Api) addSlidesHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.AddSlidesParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_ADD_SLIDES, nil, err
	}
	res, err := s.AddSlides(&m)
	if err != nil {
		return common.UPDATE_ADD_SLIDES, nil, err
	}
	watchTask(pool, res.ID, sconn.Conn)
	return common.UPDATE_ADD_SLIDES, res, nil
}
