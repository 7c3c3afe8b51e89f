package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/watchparty-server/internal/auth"
	"github.com/vovakirdan/watchparty-server/internal/config"
	"github.com/vovakirdan/watchparty-server/internal/core"
	"github.com/vovakirdan/watchparty-server/internal/metrics"
	"github.com/vovakirdan/watchparty-server/internal/proto"
	"github.com/vovakirdan/watchparty-server/internal/utils"
)

var errUnauthorized = errors.New("unauthorized")

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub      *core.Hub
	verifier *auth.Verifier
	required bool

	maxMessageBytes int64
	ratePerSecond   float64
	burst           int
	originPatterns  []string

	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. A nil verifier accepts every
// connection and leaves identity to the join request.
func NewWSHandler(hub *core.Hub, verifier *auth.Verifier, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:             hub,
		verifier:        verifier,
		required:        cfg.JWTRequired,
		maxMessageBytes: cfg.MaxMessageBytes,
		ratePerSecond:   cfg.InboundRatePerSecond,
		burst:           cfg.InboundBurst,
		originPatterns:  originPatterns(cfg.CORSOrigins),
		log:             logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	identity, err := h.authenticate(r)
	if err != nil {
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("ws auth rejected")
		stdhttp.Error(w, errUnauthorized.Error(), stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: h.originPatterns == nil,
		OriginPatterns:     h.originPatterns,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	client := core.NewClient(utils.NewConnectionID(), identity.UserID, identity.Name)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// authenticate resolves the caller identity from a token in the query
// string or the Authorization header.
func (h *WSHandler) authenticate(r *stdhttp.Request) (auth.Identity, error) {
	if h.verifier == nil {
		return auth.Identity{}, nil
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = bearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		if h.required {
			return auth.Identity{}, fmt.Errorf("%w: missing token", errUnauthorized)
		}
		return auth.Identity{}, nil
	}

	identity, err := h.verifier.Verify(token)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %w", errUnauthorized, err)
	}
	return identity, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newInboundLimiter(h.ratePerSecond, h.burst)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			metrics.InboundThrottled.Inc()
			if err := h.writeError(ctx, conn, core.ErrCodeRateLimited, "too many events"); err != nil {
				return err
			}
			continue
		}

		if typ != websocket.MessageText {
			if err := h.writeError(ctx, conn, core.ErrCodeBadRequest, "expected a text frame"); err != nil {
				return err
			}
			continue
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("malformed inbound")
			if err := h.writeError(ctx, conn, core.ErrCodeBadRequest, "malformed message"); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			if err := wsjson.Write(ctx, conn, errorOutbound(protoErr)); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, code, detail string) error {
	return wsjson.Write(ctx, conn, errorOutbound(&proto.Error{Code: code, Detail: detail}))
}

// originPatterns converts CORS origins into websocket host patterns.
// A nil result disables origin checks.
func originPatterns(origins []string) []string {
	var patterns []string
	for _, origin := range origins {
		if origin == "*" {
			return nil
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}
