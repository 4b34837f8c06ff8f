package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func generateTestKey(t *testing.T) []byte {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "test")
	require.NoError(t, err)
	return pem.EncodeToMemory(block)
}

// testServer is a minimal SSH server that answers exec requests with a fixed
// output and records the commands it received.
type testServer struct {
	listener net.Listener
	output   string
	status   uint32

	mu       sync.Mutex
	commands []string
}

func newTestServer(t *testing.T, output string, status uint32) *testServer {
	t.Helper()
	hostKey := generateTestKey(t)
	signer, err := ssh.ParsePrivateKey(hostKey)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(ssh.ConnMetadata, ssh.PublicKey) (*ssh.Permissions, error) {
			return &ssh.Permissions{}, nil
		},
	}
	cfg.AddHostKey(signer)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &testServer{listener: l, output: output, status: status}
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go s.serve(conn, cfg)
		}
	}()
	return s
}

func (s *testServer) serve(conn net.Conn, cfg *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)
	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			return
		}
		go func() {
			defer func() { _ = ch.Close() }()
			for req := range requests {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				// payload is a uint32 length followed by the command
				cmd := string(req.Payload[4:])
				s.mu.Lock()
				s.commands = append(s.commands, cmd)
				s.mu.Unlock()
				_ = req.Reply(true, nil)
				_, _ = ch.Write([]byte(s.output))
				status := make([]byte, 4)
				binary.BigEndian.PutUint32(status, s.status)
				_, _ = ch.SendRequest("exit-status", false, status)
				return
			}
		}()
	}
}

func (s *testServer) port(t *testing.T) int {
	t.Helper()
	_, p, err := net.SplitHostPort(s.listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	return port
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	t.Parallel()
	client, err := NewClient(&Config{PrivateKey: generateTestKey(t)})
	require.NoError(t, err)

	assert.Equal(t, defaultPort, client.config.Port)
	assert.Equal(t, defaultUser, client.config.User)
	assert.Equal(t, defaultDialTimeout, client.config.DialTimeout)
	assert.Equal(t, defaultMaxRetries, client.config.MaxRetries)
	assert.Equal(t, defaultRetryDelay, client.config.RetryDelay)
	assert.NotNil(t, client.config.HostKeyCallback)
	assert.NotNil(t, client.signer)
}

func TestNewClient_ConfigNotMutated(t *testing.T) {
	t.Parallel()
	cfg := &Config{PrivateKey: generateTestKey(t)}
	_, err := NewClient(cfg)
	require.NoError(t, err)

	assert.Zero(t, cfg.Port)
	assert.Empty(t, cfg.User)
	assert.Nil(t, cfg.HostKeyCallback)
}

func TestNewClient_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"empty key", &Config{User: "root"}},
		{"invalid key", &Config{PrivateKey: []byte("invalid key")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewClient(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewClientFromKeyFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, generateTestKey(t), 0o600))

	client, err := NewClientFromKeyFile(path, Config{User: "ubuntu"})
	require.NoError(t, err)
	assert.Equal(t, "ubuntu", client.config.User)

	_, err = NewClientFromKeyFile(filepath.Join(t.TempDir(), "missing"), Config{})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, "formatted\n", 0)
	client, err := NewClient(&Config{PrivateKey: generateTestKey(t), Port: server.port(t), MaxRetries: 1})
	require.NoError(t, err)

	out, err := client.Run(context.Background(), "127.0.0.1", "mkfs.ext3 -F /dev/sdj")
	require.NoError(t, err)
	assert.Equal(t, "formatted\n", out)

	server.mu.Lock()
	defer server.mu.Unlock()
	assert.Equal(t, []string{"mkfs.ext3 -F /dev/sdj"}, server.commands)
}

func TestRun_CommandFails(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, "no such device\n", 1)
	client, err := NewClient(&Config{PrivateKey: generateTestKey(t), Port: server.port(t), MaxRetries: 1})
	require.NoError(t, err)

	out, err := client.Run(context.Background(), "127.0.0.1", "false")
	require.Error(t, err)
	assert.Equal(t, "no such device\n", out)
}

func TestRun_ContextCancellation(t *testing.T) {
	t.Parallel()
	client, err := NewClient(&Config{
		PrivateKey:  generateTestKey(t),
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DialTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Run(ctx, "192.0.2.1", "echo test")
	assert.Error(t, err)
}
