package api

import (
	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/server"
	"github.com/coursedl/coursedl/pkg/courselib"
)

// OnEvent is the executor's emit hook: it routes the event through the
// scheduler and fans the refreshed task state out to attached socket
// connections and RPC WebSocket sessions.
func (s *Api) OnEvent(ev courselib.ProgressEvent) {
	s.sched.UpdateProgress(ev)

	snap, err := s.snapshotByID(ev.ID)
	if err != nil {
		// Stale event for a task that was cleaned up.
		return
	}
	update := &common.ProgressUpdate{Event: ev, Task: snap}
	s.pool.Broadcast(ev.ID, server.MakeResult(common.UPDATE_PROGRESS, update))
	if s.notifier != nil {
		s.notifier.Broadcast("task.progress", &server.TaskProgressNotification{
			Event: ev,
			Task:  snap,
		})
		if ev.Status.Terminal() {
			method := "task.done"
			if ev.Status == courselib.StatusFailed {
				method = "task.failed"
			}
			s.notifier.Broadcast(method, &server.TaskDoneNotification{
				ID:     ev.ID,
				Status: ev.Status,
			})
		}
	}
}
