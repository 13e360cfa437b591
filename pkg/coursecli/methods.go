package coursecli

import (
	"encoding/json"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/pkg/courselib"
)

func invoke[T any](c *Client, method common.UpdateType, message any) (*T, error) {
	resp, err := c.invoke(method, message)
	if err != nil {
		return nil, err
	}
	var d T
	if resp == nil {
		return &d, nil
	}
	return &d, json.Unmarshal(resp, &d)
}

// AddFile submits a single-file download.
func (c *Client) AddFile(u courselib.Upload, sync, redownload bool) (*common.AddResponse, error) {
	return invoke[common.AddResponse](c, common.UPDATE_ADD_FILE, &common.AddFileParams{
		Upload:     u,
		Sync:       sync,
		Redownload: redownload,
	})
}

// AddSlides submits a slide-deck download.
func (c *Client) AddSlides(sub courselib.Subject, toPDF, redownload bool) (*common.AddResponse, error) {
	return invoke[common.AddResponse](c, common.UPDATE_ADD_SLIDES, &common.AddSlidesParams{
		Subject:    sub,
		ToPDF:      toPDF,
		Redownload: redownload,
	})
}

// Cancel cancels a task by id.
func (c *Client) Cancel(id string) error {
	_, err := c.invoke(common.UPDATE_CANCEL, &common.TaskIDParams{ID: id})
	return err
}

// CancelAll cancels every queued and active task.
func (c *Client) CancelAll() error {
	_, err := c.invoke(common.UPDATE_CANCEL_ALL, nil)
	return err
}

// Redownload re-queues a failed or canceled task.
func (c *Client) Redownload(id string) error {
	_, err := c.invoke(common.UPDATE_REDOWNLOAD, &common.TaskIDParams{ID: id})
	return err
}

// RedownloadAll re-queues every failed or canceled task.
func (c *Client) RedownloadAll() error {
	_, err := c.invoke(common.UPDATE_REDOWNLOAD_ALL, nil)
	return err
}

// List returns the daemon's submission history.
func (c *Client) List() (*common.ListResponse, error) {
	return invoke[common.ListResponse](c, common.UPDATE_LIST, nil)
}

// Count returns the number of active plus queued tasks.
func (c *Client) Count() (*common.CountResponse, error) {
	return invoke[common.CountResponse](c, common.UPDATE_COUNT, nil)
}

// ExistsFile checks whether an equal file task is already in history.
func (c *Client) ExistsFile(u courselib.Upload, sync bool) (*common.ExistsResponse, error) {
	return invoke[common.ExistsResponse](c, common.UPDATE_EXISTS_FILE, &common.AddFileParams{
		Upload: u,
		Sync:   sync,
	})
}

// ExistsSlides checks whether an equal slide task is already in history.
func (c *Client) ExistsSlides(sub courselib.Subject, toPDF bool) (*common.ExistsResponse, error) {
	return invoke[common.ExistsResponse](c, common.UPDATE_EXISTS_SLIDES, &common.AddSlidesParams{
		Subject: sub,
		ToPDF:   toPDF,
	})
}

// Open reveals a finished artifact, or its folder.
func (c *Client) Open(id string, folder bool) (*common.OpenResponse, error) {
	return invoke[common.OpenResponse](c, common.UPDATE_OPEN, &common.OpenParams{
		ID:     id,
		Folder: folder,
	})
}

// CleanUp drops all daemon-side task state.
func (c *Client) CleanUp() error {
	_, err := c.invoke(common.UPDATE_CLEAN_UP, nil)
	return err
}

// Attach subscribes this connection to pushed progress updates and
// returns the current history. An empty id attaches to every task.
// Call Listen afterwards to consume the pushes.
func (c *Client) Attach(id string) (*common.ListResponse, error) {
	return invoke[common.ListResponse](c, common.UPDATE_ATTACH, &common.TaskIDParams{ID: id})
}

// GetConfig reads the daemon settings.
func (c *Client) GetConfig() (*common.ConfigResponse, error) {
	return invoke[common.ConfigResponse](c, common.UPDATE_GET_CONFIG, nil)
}

// SetConfig updates a subset of the daemon settings; nil fields are
// left unchanged.
func (c *Client) SetConfig(p *common.SetConfigParams) (*common.ConfigResponse, error) {
	return invoke[common.ConfigResponse](c, common.UPDATE_SET_CONFIG, p)
}

// Stop shuts the daemon down.
func (c *Client) Stop() error {
	_, err := c.invoke(common.UPDATE_STOP, nil)
	return err
}
