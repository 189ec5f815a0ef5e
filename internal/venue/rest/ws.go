package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"tradeaudit/internal/models"
)

type fillSubscribeRequest struct {
	Type     string   `json:"type"`
	Channel  string   `json:"channel"`
	Accounts []string `json:"accounts"`
}

// FillEnvelope is the thin frame wrapper around streamed fill payloads.
type FillEnvelope struct {
	Channel string   `json:"channel"`
	Account string   `json:"account"`
	Fill    wireFill `json:"fill"`
}

// ParseStreamFill converts a streamed envelope into a canonical fill.
func ParseStreamFill(env FillEnvelope) (models.Fill, error) {
	return parseFill(env.Account, env.Fill)
}

type WSClient struct {
	url  string
	conn *websocket.Conn
}

func NewWSClient(url string) *WSClient {
	return &WSClient{url: url}
}

func (c *WSClient) Connect(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("ws client is nil")
	}
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(1 << 20)
	c.conn = conn
	return nil
}

func (c *WSClient) Close(status websocket.StatusCode, reason string) error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close(status, reason)
}

func (c *WSClient) SubscribeFills(ctx context.Context, accounts []string) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("ws not connected")
	}
	req := fillSubscribeRequest{
		Type:     "subscribe",
		Channel:  "userFills",
		Accounts: accounts,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageText, payload)
}

func (c *WSClient) Read(ctx context.Context) (FillEnvelope, []byte, error) {
	if c == nil || c.conn == nil {
		return FillEnvelope{}, nil, fmt.Errorf("ws not connected")
	}
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return FillEnvelope{}, nil, err
	}
	var env FillEnvelope
	_ = json.Unmarshal(data, &env)
	return env, data, nil
}

type FillStreamOptions struct {
	URL               string
	Accounts          []string
	HeartbeatInterval time.Duration
	PingTimeout       time.Duration
	BackoffMin        time.Duration
	BackoffMax        time.Duration
	Logger            *zap.Logger
}

// FillStream maintains a subscription to the venue's fill feed, reconnecting
// with capped backoff and jitter.
type FillStream struct {
	opts      FillStreamOptions
	seenFirst bool
}

func NewFillStream(opts FillStreamOptions) *FillStream {
	if opts.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = 20 * time.Second
	}
	if opts.PingTimeout == 0 {
		opts.PingTimeout = 5 * time.Second
	}
	if opts.BackoffMin == 0 {
		opts.BackoffMin = 1 * time.Second
	}
	if opts.BackoffMax == 0 {
		opts.BackoffMax = 30 * time.Second
	}
	return &FillStream{opts: opts}
}

func (s *FillStream) Run(ctx context.Context, onMessage func(FillEnvelope, []byte)) error {
	if s == nil {
		return fmt.Errorf("stream is nil")
	}
	if strings.TrimSpace(s.opts.URL) == "" {
		return fmt.Errorf("stream url is empty")
	}
	if len(s.opts.Accounts) == 0 {
		return fmt.Errorf("no accounts to subscribe")
	}
	backoff := s.opts.BackoffMin
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		client := NewWSClient(s.opts.URL)
		if err := client.Connect(ctx); err != nil {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("fill ws connect failed", zap.Error(err))
			}
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		if err := client.SubscribeFills(ctx, s.opts.Accounts); err != nil {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("fill ws subscribe failed", zap.Error(err))
			}
			_ = client.Close(websocket.StatusInternalError, "subscribe failed")
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		if s.opts.Logger != nil {
			s.opts.Logger.Info("fill ws subscribed", zap.Int("accounts", len(s.opts.Accounts)))
		}
		backoff = s.opts.BackoffMin

		err := s.consume(ctx, client, onMessage)
		_ = client.Close(websocket.StatusNormalClosure, "reconnect")
		if err == nil || errors.Is(err, context.Canceled) {
			return err
		}
		if err := sleepWithJitter(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff, s.opts.BackoffMax)
	}
}

func (s *FillStream) consume(ctx context.Context, client *WSClient, onMessage func(FillEnvelope, []byte)) error {
	heartbeatErr := make(chan error, 1)
	heartbeatCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(s.opts.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-heartbeatCtx.Done():
				heartbeatErr <- heartbeatCtx.Err()
				return
			case <-ticker.C:
				pingCtx, cancelPing := context.WithTimeout(heartbeatCtx, s.opts.PingTimeout)
				err := client.conn.Ping(pingCtx)
				cancelPing()
				if err != nil {
					heartbeatErr <- err
					return
				}
			}
		}
	}()

	for {
		select {
		case err := <-heartbeatErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		default:
		}
		env, raw, err := client.Read(ctx)
		if err != nil {
			if s.opts.Logger != nil && !errors.Is(err, context.Canceled) {
				s.opts.Logger.Warn("fill ws read failed", zap.Error(err))
			}
			return err
		}
		if isPingPayload(raw) {
			continue
		}
		if s.opts.Logger != nil && !s.seenFirst {
			s.seenFirst = true
			s.opts.Logger.Info("fill ws first message", zap.String("channel", env.Channel))
		}
		if onMessage != nil {
			onMessage(env, raw)
		}
	}
}

func isPingPayload(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	if strings.TrimSpace(string(raw)) == "ping" {
		return true
	}
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil {
		if strings.EqualFold(probe.Type, "ping") {
			return true
		}
	}
	return false
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func sleepWithJitter(ctx context.Context, base time.Duration) error {
	if base <= 0 {
		return nil
	}
	var jitter time.Duration
	if half := int64(base / 2); half > 0 {
		jitter = time.Duration(rand.Int63n(half))
	}
	timer := time.NewTimer(base + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
