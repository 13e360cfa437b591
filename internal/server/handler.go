package server

import (
	"encoding/json"

	"github.com/coursedl/coursedl/common"
)

// HandlerFunc is the signature for socket request handlers. It receives
// the requesting connection, the connection pool, and the raw JSON
// message body, and returns the update type for the response, the
// response payload, and any error encountered.
type HandlerFunc func(
	conn *SyncConn,
	pool *Pool,
	body json.RawMessage,
) (
	common.UpdateType,
	any,
	error,
)
