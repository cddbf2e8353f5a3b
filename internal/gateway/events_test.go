package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/braidhq/braid/internal/observe"
)

func TestEvents_StreamDeliversBuilds(t *testing.T) {
	t.Parallel()

	hub := observe.NewHub()
	s := newTestServer(t, Opts{Hub: hub})

	srv := httptest.NewServer(s.buildRouter())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	// The handler subscribes after the upgrade completes; wait for it.
	for i := 0; hub.Subscribers() == 0 && i < 100; i++ {
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(observe.BuildEvent{Model: "qwen3:14b", TotalTokens: 900})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var ev observe.BuildEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Model != "qwen3:14b" || ev.TotalTokens != 900 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestEvents_NotMountedWithoutHub(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Opts{})

	srv := httptest.NewServer(s.buildRouter())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	if _, _, err := websocket.Dial(ctx, url, nil); err == nil {
		t.Fatal("dial should fail when no hub is configured")
	}
}
