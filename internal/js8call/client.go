// Package js8call bridges a local JS8Call instance into the BBS. JS8Call
// exposes a line-oriented JSON API over TCP; directed HF traffic heard
// there is filed as mail for the gateway operator, so messages arriving
// over HF surface in the same inbox as mesh mail.
package js8call

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"

	"meshbbs/internal/logging"
	"meshbbs/internal/models"
)

// MailStore is the single storage capability the bridge needs.
type MailStore interface {
	Create(ctx context.Context, m *models.MailMessage) error
}

// Config tunes the bridge connection.
type Config struct {
	// Addr is the JS8Call API endpoint, normally 127.0.0.1:2442.
	Addr string

	// Operator is the node id whose mailbox receives HF traffic.
	Operator string

	// ReconnectMin/ReconnectMax bound the backoff between dial attempts.
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

func (c *Config) withDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:2442"
	}
	if c.ReconnectMin <= 0 {
		c.ReconnectMin = time.Second
	}
	if c.ReconnectMax <= 0 {
		c.ReconnectMax = time.Minute
	}
}

// apiMessage is one line of the JS8Call JSON API.
type apiMessage struct {
	Type   string         `json:"type"`
	Value  string         `json:"value"`
	Params map[string]any `json:"params"`
}

// Client maintains the connection and files inbound traffic.
type Client struct {
	cfg    Config
	mail   MailStore
	logger logging.Logger

	dial func(ctx context.Context, addr string) (net.Conn, error)
	now  func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewClient builds the bridge. It does not connect until Start.
func NewClient(cfg Config, mail MailStore, logger logging.Logger) *Client {
	cfg.withDefaults()
	return &Client{
		cfg:    cfg,
		mail:   mail,
		logger: logger.With("component", "js8call"),
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
		now: time.Now,
	}
}

// Start launches the connection loop. Stop cancels it and waits.
func (c *Client) Start(ctx context.Context) {
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.run(ctx)
	c.logger.Info(ctx, "js8call bridge started", "addr", c.cfg.Addr)
}

// Stop cancels the loop and blocks until it has exited.
func (c *Client) Stop() {
	if c.stopCh == nil {
		return
	}
	close(c.stopCh)
	<-c.doneCh
	c.stopCh = nil
}

// run dials, reads until the connection drops, then backs off and retries.
// The backoff doubles per consecutive failure and resets after a session
// that actually delivered lines.
func (c *Client) run(ctx context.Context) {
	defer close(c.doneCh)

	backoff := c.cfg.ReconnectMin
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		conn, err := c.dial(ctx, c.cfg.Addr)
		if err != nil {
			c.logger.Warn(ctx, "js8call dial failed", "addr", c.cfg.Addr, "error", err)
			if !c.sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, c.cfg.ReconnectMax)
			continue
		}

		if c.readLoop(ctx, conn) > 0 {
			backoff = c.cfg.ReconnectMin
		}
		conn.Close()
	}
}

// sleep waits d before the next dial attempt. It returns false when the
// context is canceled or Stop is called, meaning the loop should exit.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-c.stopCh:
		return false
	case <-t.C:
		return true
	}
}

// readLoop consumes lines until the connection drops or the client stops.
// It returns the number of lines read. The watcher goroutine exists to
// unblock the scanner on cancellation; done ensures it exits when the
// connection drops on its own, so watchers do not pile up across
// reconnects.
func (c *Client) readLoop(ctx context.Context, conn net.Conn) int {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-c.stopCh:
		case <-done:
		}
		conn.Close()
	}()

	lines := 0
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		lines++
		c.handleLine(ctx, scanner.Text())
	}
	return lines
}

// handleLine decodes one API line. Everything but RX.DIRECTED is noise
// here; malformed lines are logged and skipped.
func (c *Client) handleLine(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	var msg apiMessage
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		c.logger.Debug(ctx, "unparseable js8call line", "error", err)
		return
	}
	if msg.Type != "RX.DIRECTED" {
		return
	}

	from, text := parseDirected(msg)
	if text == "" {
		return
	}

	m := &models.MailMessage{
		SenderID:    "js8call",
		SenderName:  from,
		RecipientID: c.cfg.Operator,
		Subject:     "HF message from " + from,
		Content:     text,
		Timestamp:   c.now(),
	}
	if err := c.mail.Create(ctx, m); err != nil {
		c.logger.Error(ctx, "failed to file HF message", "from", from, "error", err)
		return
	}
	c.logger.Info(ctx, "HF message filed as mail", "from", from)
}

// parseDirected extracts the sender callsign and message text. The FROM
// param is authoritative when present; otherwise the value line's
// "CALLER: CALLEE TEXT" shape is split by hand.
func parseDirected(msg apiMessage) (from, text string) {
	if v, ok := msg.Params["FROM"].(string); ok {
		from = strings.TrimSpace(v)
	}
	if v, ok := msg.Params["TEXT"].(string); ok {
		text = strings.TrimSpace(v)
	}

	value := strings.TrimSpace(msg.Value)
	if text == "" {
		text = value
	}
	if from == "" {
		if i := strings.Index(value, ":"); i > 0 {
			from = strings.TrimSpace(value[:i])
		} else {
			from = "unknown"
		}
	}
	return from, text
}
