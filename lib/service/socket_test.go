// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hwbeat/hwbeat/lib/codec"
	"github.com/hwbeat/hwbeat/lib/testutil"
)

// sendRequest connects to a unix socket, sends a CBOR request, and
// returns the decoded response envelope.
func sendRequest(t *testing.T, socketPath string, request any) Response {
	t.Helper()

	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to socket: %v", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	// Signal that we're done writing (half-close). CBOR is self-
	// delimiting so this isn't required by the protocol, but it's
	// good hygiene.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return response
}

// decodeData unmarshals the Data field of a response into the given
// target. Fails the test if decoding fails.
func decodeData(t *testing.T, response Response, target any) {
	t.Helper()
	if len(response.Data) == 0 {
		t.Fatal("response has no data to decode")
	}
	if err := codec.Unmarshal(response.Data, target); err != nil {
		t.Fatalf("decoding response data: %v", err)
	}
}

func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(testutil.SocketDir(t), "test.sock")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// startServer runs the server in the background and waits for the
// socket file to appear. Returns a stop function that shuts the
// server down and waits for Serve to return.
func startServer(t *testing.T, server *SocketServer, socketPath string) func() {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		// Require socket mode: a stale regular file left at the path
		// (as in TestStaleSocketRemoved) must not satisfy the wait.
		if fi, err := os.Stat(socketPath); err == nil && fi.Mode()&os.ModeSocket != 0 {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("socket file never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	}
}

func TestActionDispatch(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())

	server.Handle("ping", func(ctx context.Context, raw []byte) (any, error) {
		return map[string]string{"pong": "ok"}, nil
	})
	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Message string `cbor:"message"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]string{"message": request.Message}, nil
	})

	stop := startServer(t, server, socketPath)
	defer stop()

	response := sendRequest(t, socketPath, map[string]any{"action": "ping"})
	if !response.OK {
		t.Fatalf("ping failed: %s", response.Error)
	}
	var pong map[string]string
	decodeData(t, response, &pong)
	if pong["pong"] != "ok" {
		t.Errorf("pong = %v", pong)
	}

	response = sendRequest(t, socketPath, map[string]any{
		"action":  "echo",
		"message": "hello",
	})
	if !response.OK {
		t.Fatalf("echo failed: %s", response.Error)
	}
	var echo map[string]string
	decodeData(t, response, &echo)
	if echo["message"] != "hello" {
		t.Errorf("echo = %v", echo)
	}
}

func TestNilResultOmitsData(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("noop", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})

	stop := startServer(t, server, socketPath)
	defer stop()

	response := sendRequest(t, socketPath, map[string]any{"action": "noop"})
	if !response.OK {
		t.Fatalf("noop failed: %s", response.Error)
	}
	if len(response.Data) != 0 {
		t.Errorf("expected empty data, got %d bytes", len(response.Data))
	}
}

func TestHandlerErrorResponse(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("fail", func(ctx context.Context, raw []byte) (any, error) {
		return nil, errors.New("store is closed")
	})

	stop := startServer(t, server, socketPath)
	defer stop()

	response := sendRequest(t, socketPath, map[string]any{"action": "fail"})
	if response.OK {
		t.Fatal("expected failure response")
	}
	if response.Error != "store is closed" {
		t.Errorf("error = %q", response.Error)
	}
}

func TestUnknownAction(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())

	stop := startServer(t, server, socketPath)
	defer stop()

	response := sendRequest(t, socketPath, map[string]any{"action": "bogus"})
	if response.OK {
		t.Fatal("expected failure for unknown action")
	}
}

func TestMissingAction(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())

	stop := startServer(t, server, socketPath)
	defer stop()

	response := sendRequest(t, socketPath, map[string]any{"message": "no action"})
	if response.OK {
		t.Fatal("expected failure for missing action")
	}
}

func TestDuplicateHandlerPanics(t *testing.T) {
	server := NewSocketServer(testSocketPath(t), testLogger())
	server.Handle("ping", func(ctx context.Context, raw []byte) (any, error) { return nil, nil })

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate handler")
		}
	}()
	server.Handle("ping", func(ctx context.Context, raw []byte) (any, error) { return nil, nil })
}

func TestStaleSocketRemoved(t *testing.T) {
	socketPath := testSocketPath(t)

	// Leave a stale socket file behind, as after a crash.
	stale, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("creating stale socket: %v", err)
	}
	stale.Close()
	if _, err := os.Stat(socketPath); err != nil {
		// Close removed it; recreate as a plain file to simulate the
		// crash leftover.
		if err := os.WriteFile(socketPath, nil, 0o600); err != nil {
			t.Fatalf("recreating stale socket file: %v", err)
		}
	}

	server := NewSocketServer(socketPath, testLogger())
	server.Handle("ping", func(ctx context.Context, raw []byte) (any, error) { return nil, nil })

	stop := startServer(t, server, socketPath)
	response := sendRequest(t, socketPath, map[string]any{"action": "ping"})
	if !response.OK {
		t.Fatalf("ping over replaced socket failed: %s", response.Error)
	}
	stop()

	// Serve removes the socket file on the way out.
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Errorf("socket file still present after shutdown: %v", err)
	}
}

func TestConcurrentRequests(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			N int `cbor:"n"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]int{"n": request.N}, nil
	})

	stop := startServer(t, server, socketPath)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			response := sendRequest(t, socketPath, map[string]any{"action": "echo", "n": n})
			if !response.OK {
				t.Errorf("request %d failed: %s", n, response.Error)
				return
			}
			var result map[string]int
			decodeData(t, response, &result)
			if result["n"] != n {
				t.Errorf("request %d got %d", n, result["n"])
			}
		}(i)
	}
	wg.Wait()
}

func TestServeFailsOnUnusableSocketPath(t *testing.T) {
	dir := t.TempDir()
	server := NewSocketServer(filepath.Join(dir, "missing", "deep", "test.sock"), testLogger())
	if err := server.Serve(context.Background()); err == nil {
		t.Fatal("expected listen error for unreachable socket path")
	}
}

func TestOversizedRequestRejected(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("ping", func(ctx context.Context, raw []byte) (any, error) { return nil, nil })

	stop := startServer(t, server, socketPath)
	defer stop()

	// A request bigger than the server's limit truncates mid-value and
	// produces an invalid-request response rather than a hang.
	response := sendRequest(t, socketPath, map[string]any{
		"action":  "ping",
		"padding": make([]byte, maxRequestSize+1),
	})
	if response.OK {
		t.Fatal("expected oversized request to be rejected")
	}
}
