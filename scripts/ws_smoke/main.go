package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/watchparty-server/internal/auth"
	"github.com/vovakirdan/watchparty-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "user id to join with")
	room := flag.String("room", "", "room id to join (empty creates one)")
	video := flag.String("video", "https://example.com/movie.mp4", "video for a new room")
	text := flag.String("text", "hello from smoke test", "chat message to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	secret := flag.String("secret", "", "HS256 secret; when set a bearer token is minted for -user")
	issuer := flag.String("issuer", "", "token issuer")
	audience := flag.String("audience", "", "token audience")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var opts *websocket.DialOptions
	if *secret != "" {
		token, err := auth.GenerateToken(&auth.JWTConfig{
			Secret:   []byte(*secret),
			Issuer:   *issuer,
			Audience: *audience,
			TTL:      *timeout + time.Minute,
		}, *user, *user)
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}
		opts = &websocket.DialOptions{
			HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
		}
	}

	conn, _, err := websocket.Dial(ctx, *addr, opts)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	join := proto.JoinData{RoomID: *room, UserID: *user, Username: *user}
	if *room == "" {
		join.VideoURL = *video
	}
	if err := send(proto.InboundTypeJoin, join); err != nil {
		return err
	}

	start := 12.5
	if err := send(proto.InboundTypePlay, proto.PlaybackData{CurrentTime: &start}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeSendMessage, proto.SendMessageData{Message: *text}); err != nil {
		return err
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s event=%s data=%s\n", outbound.Type, outbound.Event, outbound.Data)

		if outbound.Event == proto.EventNewMessage {
			return nil
		}
	}
}
