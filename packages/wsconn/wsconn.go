// Package wsconn carries the WebSocket endpoints of the API. A Conn is a thin
// pass-through over one connection: frames go out and come back as the server
// sends them, with no reconnection and no protocol state of its own.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/kittycad/kittycad-go/internal/requestconfig"
)

// DefaultReadLimit bounds a single incoming message. Modeling responses that
// carry exported files can be large.
const DefaultReadLimit = 32 << 20

// ErrClosed is returned when writing to a Conn that Close was called on.
var ErrClosed = errors.New("wsconn: connection closed")

type MessageType = websocket.MessageType

const (
	MessageText   = websocket.MessageText
	MessageBinary = websocket.MessageBinary
)

// Conn is an open WebSocket to the API. Reads must come from one goroutine at a
// time; writes may be concurrent.
type Conn struct {
	ws  *websocket.Conn
	res *http.Response

	mu     sync.Mutex
	closed bool
}

// Dial opens the WebSocket at path with the same options an HTTP call would
// take. A refused handshake is returned as an *apierror.Error.
func Dial(ctx context.Context, path string, query any, opts ...requestconfig.RequestOption) (*Conn, error) {
	ws, res, err := requestconfig.DialWebSocket(ctx, path, query, opts...)
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(DefaultReadLimit)
	return New(ws, res), nil
}

// New wraps an established connection. res may be nil.
func New(ws *websocket.Conn, res *http.Response) *Conn {
	return &Conn{ws: ws, res: res}
}

// Response is the handshake response.
func (c *Conn) Response() *http.Response {
	return c.res
}

// SetReadLimit changes the largest message Recv accepts.
func (c *Conn) SetReadLimit(n int64) {
	c.ws.SetReadLimit(n)
}

func (c *Conn) write(ctx context.Context, typ MessageType, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.ws.Write(ctx, typ, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// Send writes a text message.
func (c *Conn) Send(ctx context.Context, data []byte) error {
	return c.write(ctx, MessageText, data)
}

// SendBinary writes a binary message.
func (c *Conn) SendBinary(ctx context.Context, data []byte) error {
	return c.write(ctx, MessageBinary, data)
}

// SendJSON encodes v and writes it as a text message.
func (c *Conn) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("websocket encode: %w", err)
	}
	return c.Send(ctx, data)
}

// Recv reads the next message of either type.
func (c *Conn) Recv(ctx context.Context) (MessageType, []byte, error) {
	typ, data, err := c.ws.Read(ctx)
	if err != nil {
		return typ, nil, fmt.Errorf("websocket read: %w", err)
	}
	return typ, data, nil
}

// RecvJSON reads the next message and decodes it into v.
func (c *Conn) RecvJSON(ctx context.Context, v any) error {
	_, data, err := c.Recv(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("websocket decode: %w", err)
	}
	return nil
}

// Close performs the closing handshake with a normal status. Closing twice is
// a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.ws.Close(websocket.StatusNormalClosure, "")
}

// CloseNow drops the connection without the closing handshake.
func (c *Conn) CloseNow() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.ws.CloseNow()
}

// IsNormalClose reports whether err ends a connection the way either side is
// expected to end it.
func IsNormalClose(err error) bool {
	if err == nil {
		return false
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, io.EOF)
}
