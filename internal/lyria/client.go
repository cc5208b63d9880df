package lyria

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aurastream/genmusic/internal/config"
	"github.com/aurastream/genmusic/internal/observability"
	"github.com/aurastream/genmusic/internal/resilience"
)

const bidiGenerateMusicPath = "/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateMusic"

// handshakeTimeout bounds the dial plus setup exchange.
const handshakeTimeout = 15 * time.Second

// Client dials music generation sessions against the Gemini API.
type Client struct {
	cfg    *config.Config
	dialer *websocket.Dialer
	scheme string
}

// NewClient creates a client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		scheme: "wss",
	}
}

// endpoint builds the websocket URL with the API key as a query
// parameter, per the service's authentication scheme.
func (c *Client) endpoint() string {
	u := url.URL{
		Scheme:   c.scheme,
		Host:     c.cfg.APIHost,
		Path:     bidiGenerateMusicPath,
		RawQuery: url.Values{"key": []string{c.cfg.GeminiAPIKey}}.Encode(),
	}
	return u.String()
}

// Connect opens a session: dial, send setup, wait for setupComplete.
// The dial is retried with exponential backoff.
func (c *Client) Connect(ctx context.Context) (MusicSession, error) {
	logger := observability.GetLogger()

	var sess *Session
	err := c.connectOnce(ctx, &sess)
	if err == nil {
		return sess, nil
	}
	logger.Warn().Err(err).Msg("Initial connection failed, retrying")

	reconnectCfg := &resilience.ReconnectConfig{
		MaxAttempts: c.cfg.ReconnectMaxAttempts,
		Backoff:     time.Duration(c.cfg.ReconnectBackoff) * time.Millisecond,
		Multiplier:  2.0,
		MaxBackoff:  30 * time.Second,
	}
	if err := resilience.Reconnect(ctx, func() error {
		return c.connectOnce(ctx, &sess)
	}, reconnectCfg); err != nil {
		return nil, fmt.Errorf("connect to music service: %w", err)
	}
	return sess, nil
}

// connectOnce performs a single dial and setup handshake.
func (c *Client) connectOnce(ctx context.Context, out **Session) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial music service: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial music service: %w", err)
	}

	setup := setupMessage{Setup: setupPayload{Model: c.cfg.ModelID}}
	if err := conn.WriteJSON(setup); err != nil {
		conn.Close()
		return fmt.Errorf("send setup: %w", err)
	}

	// The service acknowledges setup before any audio flows.
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			conn.Close()
			return fmt.Errorf("await setup ack: %w", err)
		}
		if msg.SetupComplete != nil {
			break
		}
	}
	conn.SetReadDeadline(time.Time{})

	*out = newSession(conn, c.cfg)
	return nil
}
