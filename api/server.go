// Package api serves the chat assistant over HTTP with echo.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/nextgensultan/agentic-policybased-chatbot/agent/agents/orchestrator"
	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order/returnqueue"
	statex "github.com/nextgensultan/agentic-policybased-chatbot/agent/state"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/metrics"
)

const (
	DefaultSessionCookie = "session_id"
	DefaultBodyLimit     = "10M"
)

// ChatService is what the handlers need from the orchestrator.
type ChatService interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (orchestrator.Turn, error)
	HandleAudio(ctx context.Context, sessionID string, audio []byte) (orchestrator.Turn, error)
	Messages(ctx context.Context, sessionID string) ([]statex.Message, error)
	Clear(ctx context.Context, sessionID string) error
}

type ReturnReceiver interface {
	Receive(ctx context.Context, signature string, body []byte) (order.ReturnEvent, error)
}

type Config struct {
	SessionCookie string
	SecureCookie  bool
	BodyLimit     string
	Metrics       *metrics.Metrics
	// Returns handles /hooks/returns. Nil leaves the route unregistered.
	Returns ReturnReceiver
}

type Server struct {
	e       *echo.Echo
	chat    ChatService
	returns ReturnReceiver
	metrics *metrics.Metrics

	cookieName   string
	secureCookie bool
}

func New(chat ChatService, cfg Config) (*Server, error) {
	if chat == nil {
		return nil, errors.New("chat service is required")
	}

	cookieName := strings.TrimSpace(cfg.SessionCookie)
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	bodyLimit := strings.TrimSpace(cfg.BodyLimit)
	if bodyLimit == "" {
		bodyLimit = DefaultBodyLimit
	}

	s := &Server{
		e:            echo.New(),
		chat:         chat,
		returns:      cfg.Returns,
		metrics:      cfg.Metrics,
		cookieName:   cookieName,
		secureCookie: cfg.SecureCookie,
	}

	e := s.e
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.observe)
	e.Use(middleware.BodyLimit(bodyLimit))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	e.POST("/send_message", s.sendMessage)
	e.POST("/process_audio", s.processAudio)
	e.GET("/get_messages", s.getMessages)
	e.POST("/clear_chat", s.clearChat)
	e.GET("/ws", s.chatSocket)

	if s.returns != nil {
		e.POST("/hooks/returns", s.returnHook)
	}

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func (s *Server) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("http server listening")
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// observe attaches a request-scoped logger and records one log line and
// one metric sample per request.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		logger := log.With().
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Logger()
		c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

		if err := next(c); err != nil {
			c.Error(err)
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		status := c.Response().Status
		elapsed := time.Since(start)
		s.metrics.ObserveHTTP(req.Method, route, status, elapsed)

		logger.Info().
			Str("method", req.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Str("remote_ip", c.RealIP()).
			Msg("http request")
		return nil
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Ctx(c.Request().Context()).Error().Err(err).Int("status", code).Msg("request failed")
	}
	if c.Response().Committed {
		return
	}
	_ = c.JSON(code, errorResponse{Error: msg})
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, orchestrator.ErrInvalidMessage):
		return http.StatusBadRequest, msgNoMessage
	case errors.Is(err, orchestrator.ErrNoAudio):
		return http.StatusBadRequest, msgNoAudio
	case errors.Is(err, orchestrator.ErrNoSpeech):
		return http.StatusBadRequest, msgNoSpeech
	case errors.Is(err, orchestrator.ErrInvalidSession),
		errors.Is(err, contractx.ErrValidation),
		errors.Is(err, contractx.ErrInvalidArgument),
		errors.Is(err, returnqueue.ErrInvalidEvent):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, returnqueue.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid signature"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
