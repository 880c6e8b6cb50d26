package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/deras16/ChatDb-vertexai/config"
)

func writeKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0600))
	return path
}

func TestNewTunnel(t *testing.T) {
	tun, err := NewTunnel(config.SSHConfig{
		Enabled: true,
		Host:    "bastion.example",
		User:    "deploy",
		KeyPath: writeKey(t),
	}, "10.0.0.5", 5432)
	require.NoError(t, err)

	assert.Equal(t, "bastion.example:22", tun.sshAddr)
	assert.Equal(t, "10.0.0.5:5432", tun.remoteAddr)
	assert.Equal(t, "deploy", tun.sshConfig.User)
	tun.Stop()
	tun.Stop()
}

func TestNewTunnelRequiresKey(t *testing.T) {
	_, err := NewTunnel(config.SSHConfig{Host: "b", User: "u"}, "db", 5432)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_path")
}

func TestNewTunnelRequiresHost(t *testing.T) {
	_, err := NewTunnel(config.SSHConfig{User: "u", KeyPath: "/nope"}, "db", 5432)
	assert.Error(t, err)
}

func TestKnownHostsMissingFile(t *testing.T) {
	_, err := hostKeyCallback(filepath.Join(t.TempDir(), "known_hosts"))
	assert.Error(t, err)

	cb, err := hostKeyCallback("")
	require.NoError(t, err)
	assert.NotNil(t, cb)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssh", "id"), expandHome("~/.ssh/id"))
	assert.Equal(t, "/abs/key", expandHome("/abs/key"))
}
