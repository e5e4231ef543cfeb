package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type socketRequest struct {
	Message string `json:"message"`
}

type socketResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// chatSocket runs one chat turn per text frame for the life of the
// connection.
func (s *Server) chatSocket(c echo.Context) error {
	sessionID, cookie := s.resolveSession(c.Request())
	header := http.Header{}
	if cookie != nil {
		header.Add("Set-Cookie", cookie.String())
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), header)
	if err != nil {
		return nil
	}
	defer conn.Close()

	ctx := c.Request().Context()
	logger := log.Ctx(ctx).With().Str("session_id", sessionID).Logger()
	logger.Debug().Msg("websocket opened")

	for {
		var req socketRequest
		if err := conn.ReadJSON(&req); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				logger.Debug().Err(err).Msg("websocket read failed")
			}
			return nil
		}

		var resp socketResponse
		turn, err := s.chat.HandleMessage(ctx, sessionID, req.Message)
		if err != nil {
			_, resp.Error = statusFor(err)
		} else {
			resp.Response = turn.Reply
		}

		if err := conn.WriteJSON(resp); err != nil {
			logger.Debug().Err(err).Msg("websocket write failed")
			return nil
		}
	}
}
