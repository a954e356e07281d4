// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/spirit_level/internal/level"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, h *WebHub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients=%d want %d", h.ClientCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWebHub_BroadcastsCommands(t *testing.T) {
	hub := NewWebHub(nil, nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	conn := dialHub(t, srv)
	defer conn.Close()
	waitClients(t, hub, 1)

	if err := hub.SetAngleLabel("Angle: -3.00°"); err != nil {
		t.Fatalf("SetAngleLabel: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	cmd, err := DecodeCommand(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.Type != CommandLabel || cmd.Text != "Angle: -3.00°" {
		t.Fatalf("cmd=%+v", cmd)
	}
}

func TestWebHub_ReplaysLatestToNewClient(t *testing.T) {
	hub := NewWebHub(nil, nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	_ = hub.MoveIndicator(level.Translate, 12.5)

	conn := dialHub(t, srv)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	cmd, _ := DecodeCommand(data)
	if cmd.Type != CommandMove || cmd.Kind != "translate" || cmd.Value != 12.5 {
		t.Fatalf("cmd=%+v", cmd)
	}
}

func TestWebHub_ClientOrientationMessage(t *testing.T) {
	var got atomic.Int32
	got.Store(-1)
	hub := NewWebHub(func(m level.OrientationMode) bool {
		got.Store(int32(m))
		return true
	}, nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"orientation","mode":"landscape"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for got.Load() != int32(level.Landscape) {
		if time.Now().After(deadline) {
			t.Fatalf("orientation callback not called, got=%d", got.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWebHub_StateEndpoint(t *testing.T) {
	hub := NewWebHub(nil, nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503 before any command", resp.StatusCode)
	}

	_ = hub.SetOpacity(level.Grid, 1, 600*time.Millisecond, level.CubicInOut)
	resp, err = http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestWebHub_DisconnectRemovesClient(t *testing.T) {
	hub := NewWebHub(nil, nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	waitClients(t, hub, 1)
	conn.Close()
	waitClients(t, hub, 0)
}

func TestWebHub_ServesPage(t *testing.T) {
	hub := NewWebHub(nil, nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Spirit Level") {
		t.Fatalf("status=%d body=%.80q", resp.StatusCode, body)
	}
}
