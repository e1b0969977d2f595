package internal

import (
	"github.com/valyala/fasthttp"

	"github.com/albumkeep/albumkeep/internal/ingest"
	"github.com/albumkeep/albumkeep/internal/middleware"
	"github.com/albumkeep/albumkeep/internal/websocket"
)

func NewRequestHandler(config *Config, ingestEndpoints *ingest.Endpoints, wsHandler *websocket.Handler) fasthttp.RequestHandler {
	authMiddleware := middleware.NewBasicAuthMiddleware(config.Server.AuthUsername, config.Server.AuthPassword)
	corsMiddleware := middleware.NewCORSMiddleware(config.Server.AllowedOrigins)

	handler := func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		method := string(ctx.Method())

		switch path {
		case "/", "/status":
			if method == fasthttp.MethodGet {
				ingestEndpoints.Status(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}

		case "/upload":
			if method == fasthttp.MethodPost {
				authMiddleware.RequireAuth(ingestEndpoints.Upload)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}

		case "/albums":
			if method == fasthttp.MethodGet {
				authMiddleware.RequireAuth(ingestEndpoints.Albums)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}

		case "/ws":
			authMiddleware.RequireAuth(wsHandler.HandleFastHTTP)(ctx)

		default:
			ctx.Error("Not Found", fasthttp.StatusNotFound)
		}
	}

	return corsMiddleware.Handle(handler)
}
