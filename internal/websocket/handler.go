package websocket

import (
	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

var upgrader = websocket.FastHTTPUpgrader{
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		return true
	},
}

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleFastHTTP upgrades the connection and attaches it to the hub.
// Authentication happens in the router, before the upgrade.
func (h *Handler) HandleFastHTTP(ctx *fasthttp.RequestCtx) {
	remote := ctx.RemoteIP().String()

	err := upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		client := NewClient(h.hub, conn, remote)
		h.hub.Register(client)

		go client.WritePump()
		client.ReadPump()
	})
	if err != nil {
		log.Error().Err(err).Str("remote", remote).Msg("[WS] Upgrade failed")
	}
}
