package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	syncAddr   string
	syncPretty bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Follow the TCP change feed",
}

var syncListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print change events from the TCP feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listenTCP(syncAddr, syncPretty)
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Follow the WebSocket change feed",
}

var notifySubscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Print change events from /ws",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wsURL, err := websocketURL(apiURL, "/ws")
		if err != nil {
			return err
		}
		return runWebSocket(wsURL)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd, notifyCmd)
	syncCmd.AddCommand(syncListenCmd)
	notifyCmd.AddCommand(notifySubscribeCmd)

	def := os.Getenv("READLIST_SYNC_ADDR")
	if def == "" {
		def = "localhost:7070"
	}
	syncListenCmd.Flags().StringVar(&syncAddr, "addr", def, "TCP feed address")
	syncListenCmd.Flags().BoolVar(&syncPretty, "pretty", false, "Indent JSON events")
}

func listenTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[sync] connected to %s", addr)
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return fmt.Errorf("feed closed by %s", addr)
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[notify] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Print(string(msg))
	}
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}
