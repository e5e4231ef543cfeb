package api

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nextgensultan/agentic-policybased-chatbot/agent/agents/orchestrator"
	statex "github.com/nextgensultan/agentic-policybased-chatbot/agent/state"
)

const (
	msgNoMessage = "No message received"
	msgNoAudio   = "No audio data received"
	msgBadAudio  = "Audio data is not valid base64"
	msgNoSpeech  = "No speech detected in audio"
)

type errorResponse struct {
	Error string `json:"error"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type processAudioRequest struct {
	// Audio is a data URL such as data:audio/wav;base64,...
	Audio string `json:"audio"`
}

type turnResponse struct {
	Transcription string           `json:"transcription,omitempty"`
	Response      string           `json:"response"`
	Messages      []statex.Message `json:"messages"`
}

type messagesResponse struct {
	Messages []statex.Message `json:"messages"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func newTurnResponse(turn orchestrator.Turn) turnResponse {
	msgs := turn.Messages
	if msgs == nil {
		msgs = []statex.Message{}
	}
	return turnResponse{
		Transcription: turn.Transcription,
		Response:      turn.Reply,
		Messages:      msgs,
	}
}

func (s *Server) sendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgNoMessage)
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, msgNoMessage)
	}

	turn, err := s.chat.HandleMessage(c.Request().Context(), s.sessionID(c), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTurnResponse(turn))
}

func (s *Server) processAudio(c echo.Context) error {
	var req processAudioRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgNoAudio)
	}
	if strings.TrimSpace(req.Audio) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, msgNoAudio)
	}

	audio, err := decodeDataURL(req.Audio)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgBadAudio)
	}
	if len(audio) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, msgNoAudio)
	}

	turn, err := s.chat.HandleAudio(c.Request().Context(), s.sessionID(c), audio)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTurnResponse(turn))
}

func (s *Server) getMessages(c echo.Context) error {
	msgs, err := s.chat.Messages(c.Request().Context(), s.sessionID(c))
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []statex.Message{}
	}
	return c.JSON(http.StatusOK, messagesResponse{Messages: msgs})
}

func (s *Server) clearChat(c echo.Context) error {
	if err := s.chat.Clear(c.Request().Context(), s.sessionID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "success"})
}

func (s *Server) returnHook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}
	ev, err := s.returns.Receive(c.Request().Context(), c.Request().Header.Get("Upstash-Signature"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "received", "return_id": ev.ReturnID})
}

// decodeDataURL accepts a data URL or bare standard base64.
func decodeDataURL(raw string) ([]byte, error) {
	payload := strings.TrimSpace(raw)
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}
