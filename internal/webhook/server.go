// Package webhook receives Telegram updates pushed over HTTP.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Dispatcher handles one update. *bot.Bot satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, update tgbotapi.Update) error
}

// NewRouter builds the gin engine. A nil dispatcher serves only health and
// metrics, which is what polling mode uses.
func NewRouter(dispatcher Dispatcher, webhookPath string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if dispatcher != nil {
		router.Any(webhookPath, updateHandler(dispatcher))
	}
	return router
}

func updateHandler(dispatcher Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			serverError(c, err)
			return
		}
		var update tgbotapi.Update
		if err := json.Unmarshal(body, &update); err != nil {
			serverError(c, err)
			return
		}

		// A dropped client connection must not abort replies already under way.
		if err := dispatcher.Dispatch(context.WithoutCancel(c.Request.Context()), update); err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func serverError(c *gin.Context, err error) {
	log.Error().Str("component", "webhook").Err(err).Msg("webhook error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("component", "webhook").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Server is the HTTP listener around the router.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("component", "webhook").Str("addr", s.srv.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
