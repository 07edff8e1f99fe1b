package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/biblioflow/biblioflow-api/internal/service"
)

// FeedHandler streams circulation events over a websocket.
type FeedHandler struct {
	feed   service.CirculationFeedService
	logger zerolog.Logger
}

// NewFeedHandler constructs a feed handler.
func NewFeedHandler(feed service.CirculationFeedService, logger zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		feed:   feed,
		logger: logger.With().Str("component", "feed_handler").Logger(),
	}
}

// Register binds the websocket upgrade under the provided router group.
func (h *FeedHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *FeedHandler) handleConnection(conn *websocket.Conn) {
	events, cleanup := h.feed.Subscribe()
	defer cleanup()

	h.logger.Info().Msg("feed websocket connected")
	defer h.logger.Info().Msg("feed websocket disconnected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain client frames so we notice the close handshake.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
