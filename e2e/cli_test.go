package e2e_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/duoplay/internal/api"
	"github.com/mcoot/duoplay/internal/factory"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/auth"
)

const testSecret = "e2e-secret"

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "duoplay-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/duoplay")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) command(args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "DUOPLAY_AUTH_SECRET="+testSecret, "DUOPLAY_TOKEN=")
	return cmd
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command(args...).CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer runs the real application on a loopback listener
type testServer struct {
	app      *factory.App
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	authCfg := auth.DefaultConfig()
	authCfg.Secret = testSecret
	app, err := factory.New(factory.Config{AuthConfig: authCfg, Logger: logger})
	require.NoError(t, err)

	server := api.NewServer(app.Router(), api.DefaultServerConfig(), logger)
	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		app:  app,
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

func (ts *testServer) token(t *testing.T, userID, name string) string {
	t.Helper()
	token, _, _, err := ts.app.AuthService.Issue(model.Identity{UserID: model.UserID(userID), DisplayName: name})
	require.NoError(t, err)
	return token
}

// wsPlayer is a raw websocket client
type wsPlayer struct {
	t    *testing.T
	conn *websocket.Conn
}

func (ts *testServer) dial(t *testing.T, token string) *wsPlayer {
	t.Helper()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	url := "ws" + strings.TrimPrefix(ts.addr, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return &wsPlayer{t: t, conn: conn}
}

func (p *wsPlayer) send(msgType string, payload any) {
	p.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(p.t, err)
	require.NoError(p.t, p.conn.WriteJSON(map[string]any{"type": msgType, "payload": json.RawMessage(raw)}))
}

type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// await reads until an event of the given type arrives, skipping others
func (p *wsPlayer) await(msgType string) event {
	p.t.Helper()
	require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var evt event
		require.NoError(p.t, p.conn.ReadJSON(&evt), "waiting for %s", msgType)
		if evt.Type == msgType {
			return evt
		}
	}
}

// Response types for JSON parsing
type tokenResponse struct {
	Identity struct {
		UserID      string `json:"user_id"`
		DisplayName string `json:"display_name"`
	} `json:"identity"`
	Token string `json:"token"`
}

type identityResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type roomResponse struct {
	Code     string `json:"code"`
	GameName string `json:"game_name"`
	Players  []struct {
		UserID string `json:"user_id"`
		Online bool   `json:"online"`
	} `json:"players"`
	Full bool `json:"full"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_TokenAndMe(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("player", "token", "--name", "Alice", "--id", "u-alice")
	require.NoError(t, err, "output: %s", output)

	var tokenResp tokenResponse
	require.NoError(t, json.Unmarshal([]byte(output), &tokenResp))
	assert.Equal(t, "u-alice", tokenResp.Identity.UserID)
	assert.NotEmpty(t, tokenResp.Token)

	// Token was saved to the token file
	output, err = cli.run("player", "me")
	require.NoError(t, err, "output: %s", output)

	var me identityResponse
	require.NoError(t, json.Unmarshal([]byte(output), &me))
	assert.Equal(t, "u-alice", me.UserID)
	assert.Equal(t, "Alice", me.DisplayName)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// No token yet
	output, err := cli.run("room", "list")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	_, err = cli.run("player", "token", "--name", "Alice")
	require.NoError(t, err)

	output, err = cli.run("room", "get", "NOPE99")
	assert.Error(t, err)
	assert.Contains(t, output, "ROOM_NOT_FOUND")
}

func TestWebSocket_FullGame(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	alice := ts.dial(t, ts.token(t, "u-alice", "Alice"))
	bob := ts.dial(t, ts.token(t, "u-bob", "Bob"))

	alice.send("create-room", map[string]any{"gameName": "tic-tac-toe", "timed": false})
	var created model.RoomPayload
	require.NoError(t, json.Unmarshal(alice.await("room-created").Payload, &created))
	code := string(created.RoomID)
	require.Len(t, code, 6)

	bob.send("join-room", map[string]any{"roomId": strings.ToLower(code)})
	bob.await("room-joined")
	alice.await("player-joined")

	alice.send("game:ready", map[string]any{"roomId": code})
	bob.send("game:ready", map[string]any{"roomId": code})
	alice.await("game:start")
	bob.await("game:start")

	moves := []struct {
		player *wsPlayer
		index  int
	}{{alice, 0}, {bob, 4}, {alice, 1}, {bob, 7}, {alice, 2}}
	for i, m := range moves {
		m.player.send("game:move", map[string]any{"roomId": code, "index": m.index})
		if i < len(moves)-1 {
			alice.await("game:update")
			bob.await("game:update")
		}
	}

	var over model.GameOverPayload
	require.NoError(t, json.Unmarshal(bob.await("game:over").Payload, &over))
	assert.Equal(t, "X", over.Winner)
	assert.Equal(t, []string{"X", "X", "X", "", "O", "", "", "O", ""}, over.Board)

	// Bob's disconnect is seen by Alice
	require.NoError(t, bob.conn.Close())
	var offline model.PlayerPayload
	require.NoError(t, json.Unmarshal(alice.await("player-offline").Payload, &offline))
	assert.Equal(t, model.UserID("u-bob"), offline.UserID)
}

func TestCLI_ConnectSession(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	_, err := cli.run("player", "token", "--name", "Alice", "--id", "u-alice")
	require.NoError(t, err)

	cmd := cli.command("connect")
	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	lines := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	_, err = io.WriteString(stdin, "create connect-four untimed\n")
	require.NoError(t, err)

	var code string
	timeout := time.After(5 * time.Second)
	for code == "" {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "connect exited early")
			var evt struct {
				Type    string            `json:"type"`
				Payload model.RoomPayload `json:"payload"`
			}
			if json.Unmarshal([]byte(line), &evt) == nil && evt.Type == "room-created" {
				code = string(evt.Payload.RoomID)
			}
		case <-timeout:
			t.Fatal("no room-created event")
		}
	}

	// The read model catches up asynchronously
	var room roomResponse
	require.Eventually(t, func() bool {
		output, err := cli.run("room", "get", code)
		return err == nil && json.Unmarshal([]byte(output), &room) == nil
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, code, room.Code)
	assert.Equal(t, "Connect Four", room.GameName)
	require.Len(t, room.Players, 1)
	assert.Equal(t, "u-alice", room.Players[0].UserID)
	assert.False(t, room.Full)

	require.NoError(t, stdin.Close())
	require.NoError(t, cmd.Wait(), fmt.Sprintf("connect for room %s", code))
}
