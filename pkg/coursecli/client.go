// Package coursecli is the client library for the coursed daemon. It
// speaks the daemon's length-prefixed JSON protocol over the Unix
// socket, falling back to TCP.
package coursecli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/coursedl/coursedl/common"
)

type Client struct {
	mu   sync.RWMutex
	d    *Dispatcher
	conn net.Conn
}

// NewClient connects to a running daemon.
func NewClient() (*Client, error) {
	conn, err := dial()
	if err != nil {
		return nil, fmt.Errorf("error connecting to daemon: %w", err)
	}
	return &Client{
		conn: conn,
		d:    &Dispatcher{},
	}, nil
}

// Dispatcher exposes the client's update dispatcher so callers can
// register handlers before Listen.
func (c *Client) Dispatcher() *Dispatcher {
	return c.d
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Listen consumes pushed updates until the connection closes or a
// handler asks to disconnect. Run it after attaching.
func (c *Client) Listen() (err error) {
	defer c.conn.Close()
	for {
		c.mu.RLock()
		var buf []byte
		buf, err = read(c.conn)
		if err != nil {
			c.mu.RUnlock()
			return fmt.Errorf("error reading: %w", err)
		}
		err = c.d.process(buf)
		c.mu.RUnlock()
		if err != nil {
			if errors.Is(err, ErrDisconnect) {
				return nil
			}
			return fmt.Errorf("error processing: %w", err)
		}
	}
}

// invoke blocks the updates listener while a method round-trips so the
// method response is read here instead.
func (c *Client) invoke(method common.UpdateType, message any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, err := json.Marshal(&Request{
		Method:  method,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	if err = write(c.conn, buf); err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	buf, err = read(c.conn)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	var res Response
	if err = json.Unmarshal(buf, &res); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", method, err)
	}
	if !res.Ok {
		return nil, errors.New(res.Error)
	}
	if res.Update == nil {
		return nil, nil
	}
	return res.Update.Message, nil
}

func socketPath() string {
	if path := os.Getenv(common.SocketPathEnv); path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), "coursedl.sock")
}

func tcpPort() int {
	if port := os.Getenv(common.TCPPortEnv); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p >= 1 && p <= 65535 {
			return p
		}
	}
	return common.DefaultTCPPort
}

// dial connects via Unix socket first, then TCP.
func dial() (net.Conn, error) {
	conn, unixErr := net.Dial("unix", socketPath())
	if unixErr == nil {
		return conn, nil
	}
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", common.TCPHost, tcpPort()))
	if err != nil {
		return nil, fmt.Errorf("unix socket error: %v; tcp error: %w", unixErr, err)
	}
	return conn, nil
}
