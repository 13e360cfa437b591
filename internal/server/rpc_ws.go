package server

import (
	"context"
	"net/http"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
)

// wsChannel adapts a coder/websocket.Conn to the jrpc2 Channel
// interface. Each WebSocket connection gets one wsChannel bridging
// read/write operations between the transport and the jrpc2 server.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}

// handleWS upgrades the request and runs a dedicated jrpc2 server over
// the socket. The session is registered with the notifier for push
// notifications until the client disconnects.
func (rs *RPCServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		rs.log.Error("ws accept: %v", err)
		return
	}
	ch := &wsChannel{conn: conn, ctx: r.Context()}
	srv := jrpc2.NewServer(rs.methods, nil)
	if rs.notifier != nil {
		rs.notifier.Register(srv)
		defer rs.notifier.Unregister(srv)
	}
	srv.Start(ch)
	if err := srv.Wait(); err != nil {
		rs.log.Info("ws session ended: %v", err)
	}
}
