package wsconn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// Stream is a Conn whose messages are typed JSON values. Responses that need
// custom decoding, such as tagged unions, pass a decode func.
type Stream[Req, Resp any] struct {
	*Conn
	decode func([]byte) (Resp, error)
}

// NewStream types c. A nil decode uses json.Unmarshal.
func NewStream[Req, Resp any](c *Conn, decode func([]byte) (Resp, error)) *Stream[Req, Resp] {
	if decode == nil {
		decode = func(data []byte) (resp Resp, err error) {
			err = json.Unmarshal(data, &resp)
			return resp, err
		}
	}
	return &Stream[Req, Resp]{Conn: c, decode: decode}
}

// Send encodes req as one text message.
func (s *Stream[Req, Resp]) Send(ctx context.Context, req Req) error {
	return s.Conn.SendJSON(ctx, req)
}

// Recv decodes the next message.
func (s *Stream[Req, Resp]) Recv(ctx context.Context) (resp Resp, err error) {
	_, data, err := s.Conn.Recv(ctx)
	if err != nil {
		return resp, err
	}
	resp, err = s.decode(data)
	if err != nil {
		return resp, fmt.Errorf("websocket decode: %w", err)
	}
	return resp, nil
}

// SendRaw writes an already encoded message, bypassing Req.
func (s *Stream[Req, Resp]) SendRaw(ctx context.Context, data []byte) error {
	return s.Conn.Send(ctx, data)
}

const pipeChunk = 32 << 10

// Pipe copies r to the connection and the connection to w until one side ends.
// Input read from r is sent as messages of type typ in chunks of at most 32 KiB,
// or one message per line when typ is MessageText. When r is exhausted the
// connection is closed normally. A normal close from the server ends Pipe
// without error.
func Pipe(ctx context.Context, c *Conn, r io.Reader, w io.Writer, typ MessageType) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		for {
			_, data, err := c.Recv(gctx)
			if err != nil {
				if IsNormalClose(err) {
					return nil
				}
				return err
			}
			if _, err := w.Write(data); err != nil {
				return err
			}
		}
	})

	g.Go(func() error {
		chunks := make(chan []byte)
		readErr := make(chan error, 1)
		go func() {
			readChunks(gctx, r, typ, chunks, readErr)
		}()
		for {
			select {
			case <-gctx.Done():
				return nil
			case data := <-chunks:
				if err := c.write(gctx, typ, data); err != nil {
					return err
				}
			case err := <-readErr:
				if errors.Is(err, io.EOF) {
					// The read side reports how the server took the close.
					c.Close()
					return nil
				}
				return err
			}
		}
	})

	return g.Wait()
}

// readChunks runs outside the errgroup since a blocked Read on stdin cannot be
// interrupted.
func readChunks(ctx context.Context, r io.Reader, typ MessageType, out chan<- []byte, errc chan<- error) {
	buf := make([]byte, pipeChunk)
	var pending []byte
	emit := func(b []byte) bool {
		select {
		case out <- b:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if typ == MessageBinary {
				if !emit(bytes.Clone(buf[:n])) {
					return
				}
			} else {
				pending = append(pending, buf[:n]...)
				for {
					i := bytes.IndexByte(pending, '\n')
					if i < 0 {
						break
					}
					line := bytes.Clone(bytes.TrimRight(pending[:i], "\r"))
					pending = pending[i+1:]
					if len(line) > 0 && !emit(line) {
						return
					}
				}
			}
		}
		if err != nil {
			if len(pending) > 0 && !emit(bytes.Clone(pending)) {
				return
			}
			errc <- err
			return
		}
	}
}
