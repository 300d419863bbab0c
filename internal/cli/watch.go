package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/backoffice/internal/config"
	"github.com/soyeahso/backoffice/internal/gateway"
	"github.com/soyeahso/backoffice/internal/version"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		url    string
		topics []string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream module hook and cache events from a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if url == "" {
				url = fmt.Sprintf("ws://127.0.0.1:%d/ws", cfg.Gateway.Port)
				if cfg.Gateway.TLS.Enabled {
					url = fmt.Sprintf("wss://127.0.0.1:%d/ws", cfg.Gateway.Port)
				}
			}
			auth := gateway.ResolveAuth(cfg.Gateway.Auth)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conn, hello, err := dialGateway(ctx, url, auth, topics)
			if err != nil {
				return err
			}
			defer conn.Close()
			fmt.Fprintf(cmd.ErrOrStderr(), "connected to backoffice %s (conn %s)\n", hello.Server.Version, hello.Server.ConnID)

			go func() {
				<-ctx.Done()
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				conn.Close()
			}()

			enc := json.NewEncoder(os.Stdout)
			for {
				var f gateway.Frame
				if err := conn.ReadJSON(&f); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("reading events: %w", err)
				}
				if f.Type != gateway.FrameTypeEvent {
					continue
				}
				if output == "json" {
					enc.Encode(f)
					continue
				}
				fmt.Printf("%s #%d %s %s\n", time.Now().Format(time.TimeOnly), f.Seq, f.Event, f.Payload)
			}
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "gateway WebSocket URL (default from config)")
	cmd.Flags().StringSliceVar(&topics, "events", nil, "events to receive, e.g. module_hook.*,cache.clear (default all)")
	return cmd
}

// dialGateway connects to the gateway and completes the handshake.
func dialGateway(ctx context.Context, url string, auth gateway.ResolvedAuth, topics []string) (*websocket.Conn, *gateway.HelloOK, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", url, err)
	}

	var challenge gateway.Frame
	if err := conn.ReadJSON(&challenge); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("reading challenge: %w", err)
	}

	params := gateway.ConnectParams{
		MinProtocol: gateway.ProtocolVersion,
		MaxProtocol: gateway.ProtocolVersion,
		Client:      gateway.ClientInfo{ID: "backoffice-cli", Version: version.Version},
		Auth:        &gateway.ConnectAuth{Token: auth.Token, Password: auth.Password},
		Events:      topics,
	}
	req, err := gateway.NewRequest("connect", "connect", params)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("sending connect: %w", err)
	}

	var resp gateway.Frame
	if err := conn.ReadJSON(&resp); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("reading hello: %w", err)
	}
	if resp.OK == nil || !*resp.OK {
		conn.Close()
		if resp.Error != nil {
			return nil, nil, fmt.Errorf("handshake rejected: %s: %s", resp.Error.Code, resp.Error.Message)
		}
		return nil, nil, fmt.Errorf("handshake rejected")
	}

	var hello gateway.HelloOK
	if err := json.Unmarshal(resp.Payload, &hello); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("parsing hello: %w", err)
	}
	return conn, &hello, nil
}
