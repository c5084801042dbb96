package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		base, want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws"},
		{"https://books.example.com/", "wss://books.example.com/ws"},
	}
	for _, tt := range tests {
		got, err := websocketURL(tt.base, "/ws")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"books", "list"}, {"books", "add"}, {"books", "progress"}, {"books", "step"},
		{"books", "done"}, {"books", "delete"}, {"books", "history"},
		{"sync", "listen"}, {"notify", "subscribe"}, {"tui"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
