package api

import (
	"net/http"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

// wsHandler upgrades GET /api/v1/sessions/:id/events to a WebSocket and
// hands the connection to the ConnectionManager, which fans out
// comparison.published events for sessions the client subscribes to.
// The session ID in the URL is informational only — subscription happens
// over the ClientMessage protocol (see pkg/events) so one connection may
// watch several sessions.
func (s *Server) wsHandler(c *echo.Context) error {
	if s.connManager == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "event stream not available")
	}

	opts := &websocket.AcceptOptions{}
	if len(s.allowedWSOrigin) > 0 {
		opts.OriginPatterns = s.allowedWSOrigin
	} else {
		// No explicit allowlist configured: same-origin only is the
		// library default, which is what we want outside local dev.
		opts.InsecureSkipVerify = false
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), opts)
	if err != nil {
		return err
	}

	s.connManager.HandleConnection(c.Request().Context(), conn)
	return nil
}
