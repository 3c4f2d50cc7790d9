// Copyright 2025 The Golette Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golette/golette"
)

func newApp(t *testing.T) *golette.Application {
	t.Helper()
	app := golette.MustNew()

	_, err := app.GET("/users/{id:int}", func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		id, perr := req.Params.Int("id")
		if perr != nil {
			return nil, golette.NewHTTPError(http.StatusBadRequest, "bad id")
		}
		return golette.JSON(http.StatusOK, map[string]int64{"id": id})
	})
	require.NoError(t, err)

	_, err = app.POST("/echo", func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		body, berr := req.Body(ctx)
		if berr != nil {
			return nil, berr
		}
		return golette.Text(http.StatusOK, string(body)), nil
	})
	require.NoError(t, err)

	_, err = app.WebSocket("/ws/echo", func(ctx context.Context, ws *golette.WebSocket) error {
		if err := ws.Accept(ctx, ""); err != nil {
			return err
		}
		for {
			msg, err := ws.Receive(ctx)
			if err != nil {
				var de *golette.WebSocketDisconnectError
				if errors.As(err, &de) {
					return nil
				}
				return err
			}
			if msg.IsText {
				if err := ws.SendText(ctx, strings.ToUpper(msg.Text)); err != nil {
					return err
				}
			}
		}
	})
	require.NoError(t, err)

	return app
}

func TestHandler_HTTP(t *testing.T) {
	t.Parallel()

	h := New(newApp(t))

	t.Run("routes and captures", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/42?verbose=1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":42}`, w.Body.String())
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	})

	t.Run("streams request body", func(t *testing.T) {
		t.Parallel()
		payload := strings.Repeat("chunk ", 10000)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(payload)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, payload, w.Body.String())
	})

	t.Run("404 for unknown path", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("405 with Allow", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/echo", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "POST", w.Header().Get("Allow"))
	})
}

func TestHandler_WebSocket(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(New(newApp(t), WithCheckOrigin(func(*http.Request) bool { return true })))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	t.Run("echo round trip", func(t *testing.T) {
		t.Parallel()
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL+"/ws/echo", nil)
		require.NoError(t, err)
		defer conn.Close()
		defer resp.Body.Close()

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "HELLO", string(data))
	})

	t.Run("unmatched path refused before upgrade", func(t *testing.T) {
		t.Parallel()
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/ws/nowhere", nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestBodyReceive(t *testing.T) {
	t.Parallel()

	t.Run("single chunk with eof", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc"))
		receive := bodyReceive(r)

		var body []byte
		for {
			ev, err := receive(context.Background())
			require.NoError(t, err)
			require.Equal(t, golette.EventRequestBody, ev.Type)
			body = append(body, ev.Body...)
			if !ev.More {
				break
			}
		}
		assert.Equal(t, "abc", string(body))
	})

	t.Run("read error reports disconnect", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", failingReader{})
		receive := bodyReceive(r)

		ev, err := receive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, golette.EventDisconnect, ev.Type)
	})

	t.Run("after final chunk waits for context end", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		receive := bodyReceive(r)

		ev, err := receive(context.Background())
		require.NoError(t, err)
		require.False(t, ev.More)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		ev, err = receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, golette.EventDisconnect, ev.Type)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func newLocalListener(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

func TestCloseCodeToStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusNotFound, closeCodeToStatus(golette.CloseNoRoute))
	assert.Equal(t, http.StatusServiceUnavailable, closeCodeToStatus(golette.CloseTryAgainLater))
	assert.Equal(t, http.StatusForbidden, closeCodeToStatus(4003))
}

func TestLifespanDriver(t *testing.T) {
	t.Parallel()

	t.Run("startup and shutdown", func(t *testing.T) {
		t.Parallel()
		var order []string
		app := golette.MustNew()
		app.OnStartup("db", func(context.Context) error {
			order = append(order, "up")
			return nil
		})
		app.OnShutdown("db", func(context.Context) error {
			order = append(order, "down")
			return nil
		})

		l := NewLifespan(app)
		require.NoError(t, l.Startup(context.Background()))
		require.NoError(t, l.Shutdown(context.Background()))
		assert.Equal(t, []string{"up", "down"}, order)
	})

	t.Run("startup failure surfaces", func(t *testing.T) {
		t.Parallel()
		app := golette.MustNew()
		app.OnStartup("bad", func(context.Context) error { return errors.New("no database") })

		l := NewLifespan(app)
		err := l.Startup(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no database")

		// Shutdown after a failed startup is a no-op.
		assert.NoError(t, l.Shutdown(context.Background()))
	})
}

func TestServer_Defaults(t *testing.T) {
	t.Parallel()

	s := NewServer(golette.MustNew(), ":0")
	assert.Equal(t, 5*time.Second, s.srv.ReadHeaderTimeout)
	assert.Equal(t, 15*time.Second, s.srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, s.srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, s.srv.IdleTimeout)
}

func TestServer_GracefulCycle(t *testing.T) {
	t.Parallel()

	var order []string
	app := golette.MustNew()
	app.OnStartup("init", func(context.Context) error {
		order = append(order, "up")
		return nil
	})
	app.OnShutdown("init", func(context.Context) error {
		order = append(order, "down")
		return nil
	})
	_, err := app.GET("/ping", func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		return golette.Text(http.StatusOK, "pong"), nil
	})
	require.NoError(t, err)

	s := NewServer(app, "127.0.0.1:0")
	ln := newLocalListener(t)
	done := make(chan error, 1)
	go func() {
		s.life = NewLifespan(app)
		if err := s.life.Startup(context.Background()); err != nil {
			done <- err
			return
		}
		done <- s.srv.Serve(ln)
	}()

	// Wait for the listener to answer.
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://" + ln.Addr().String() + "/ping")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 10*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.ErrorIs(t, <-done, http.ErrServerClosed)
	assert.Equal(t, []string{"up", "down"}, order)
}
