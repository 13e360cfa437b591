// Package common holds the wire types shared between the coursed daemon
// and its clients.
package common

// UpdateType identifies a daemon method or a pushed update.
type UpdateType string

const (
	UPDATE_ADD_FILE       UpdateType = "add_file"
	UPDATE_ADD_SLIDES     UpdateType = "add_slides"
	UPDATE_CANCEL         UpdateType = "cancel"
	UPDATE_CANCEL_ALL     UpdateType = "cancel_all"
	UPDATE_REDOWNLOAD     UpdateType = "redownload"
	UPDATE_REDOWNLOAD_ALL UpdateType = "redownload_all"
	UPDATE_LIST           UpdateType = "list"
	UPDATE_COUNT          UpdateType = "count"
	UPDATE_EXISTS_FILE    UpdateType = "exists_file"
	UPDATE_EXISTS_SLIDES  UpdateType = "exists_slides"
	UPDATE_OPEN           UpdateType = "open"
	UPDATE_CLEAN_UP       UpdateType = "clean_up"
	UPDATE_ATTACH         UpdateType = "attach"
	UPDATE_GET_CONFIG     UpdateType = "get_config"
	UPDATE_SET_CONFIG     UpdateType = "set_config"
	UPDATE_STOP           UpdateType = "stop"

	// UPDATE_PROGRESS is pushed to attached connections, never invoked.
	UPDATE_PROGRESS UpdateType = "progress"
)

// Transport settings shared by the daemon and its clients.
const (
	// SocketPathEnv overrides the Unix socket path.
	SocketPathEnv = "COURSEDL_SOCKET_PATH"
	// TCPPortEnv overrides the TCP fallback port.
	TCPPortEnv = "COURSEDL_TCP_PORT"

	TCPHost        = "localhost"
	DefaultTCPPort = 4320

	// MaxMessageSize bounds a single length-prefixed frame.
	MaxMessageSize = 16 << 20
)
