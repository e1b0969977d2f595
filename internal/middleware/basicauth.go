package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// BasicAuthMiddleware gates endpoints behind a single shared credential
// pair. When no credentials are configured the gate is disabled and
// every request passes.
type BasicAuthMiddleware struct {
	username string
	password string
}

func NewBasicAuthMiddleware(username, password string) *BasicAuthMiddleware {
	return &BasicAuthMiddleware{
		username: username,
		password: password,
	}
}

// Enabled reports whether credentials are configured.
func (am *BasicAuthMiddleware) Enabled() bool {
	return am.username != ""
}

func (am *BasicAuthMiddleware) RequireAuth(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !am.Enabled() {
			handler(ctx)
			return
		}

		username, password, ok := parseBasicAuth(string(ctx.Request.Header.Peek("Authorization")))
		if !ok || !am.credentialsMatch(username, password) {
			log.Warn().Str("remote", ctx.RemoteIP().String()).Msg("Rejected unauthenticated request")
			// ctx.Error resets the response, so the challenge header
			// must be set after it.
			ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
			ctx.Response.Header.Set("WWW-Authenticate", `Basic realm="albumkeep"`)
			return
		}

		handler(ctx)
	}
}

func (am *BasicAuthMiddleware) credentialsMatch(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(am.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(am.password)) == 1
	return userOK && passOK
}

func parseBasicAuth(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	username, password, ok = strings.Cut(string(decoded), ":")
	return username, password, ok
}
