package requestconfig

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/coder/websocket"

	"github.com/kittycad/kittycad-go/internal/apierror"
)

// DialWebSocket opens the WebSocket at path, resolved against the configured
// base URL. The scheme is switched to ws or wss, and the query, headers and HTTP
// client are the ones an HTTP request with the same options would use.
// Middlewares are not run for the handshake. A refused handshake is returned as
// an *apierror.Error.
func DialWebSocket(ctx context.Context, path string, query any, opts ...RequestOption) (*websocket.Conn, *http.Response, error) {
	cfg, err := NewRequestConfig(ctx, http.MethodGet, path, query, nil, opts...)
	if err != nil {
		return nil, nil, err
	}
	u, err := cfg.ResolvedURL()
	if err != nil {
		return nil, nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}

	header := cfg.Request.Header.Clone()
	header.Del("Accept")
	header.Del("Content-Type")

	// The handshake refuses clients with a Timeout; the context bounds it instead.
	client := http.Client{}
	if cfg.HTTPClient != nil {
		client = *cfg.HTTPClient
	}
	client.Timeout = 0

	dialCtx := ctx
	if cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()
	}

	ws, res, err := websocket.Dial(dialCtx, u.String(), &websocket.DialOptions{
		HTTPClient: &client,
		HTTPHeader: header,
	})
	if err != nil {
		if res != nil && res.StatusCode != http.StatusSwitchingProtocols {
			var body []byte
			if res.Body != nil {
				body, _ = io.ReadAll(res.Body)
				res.Body.Close()
			}
			req := cfg.Request.Clone(ctx)
			req.URL = u
			return nil, res, apierror.New(req, res, body)
		}
		return nil, res, fmt.Errorf("websocket dial %s: %w", u.Redacted(), err)
	}
	return ws, res, nil
}
