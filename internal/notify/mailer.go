// Package notify delivers best-effort transactional email through a
// Brevo-compatible HTTP API. Messages are queued and sent by background
// workers; delivery failures are logged and swallowed, never surfaced to
// the operation that enqueued them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Config holds mailer configuration.
type Config struct {
	APIURL  string // Transactional email endpoint
	APIKey  string // Empty disables sending entirely
	Sender  string // From address
	Workers int    // Number of concurrent delivery workers
}

// DefaultConfig returns default mailer configuration.
func DefaultConfig() Config {
	return Config{
		APIURL:  "https://api.brevo.com/v3/smtp/email",
		Workers: 3,
	}
}

// recipient is one email recipient.
type recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// message is the wire shape of one transactional email.
type message struct {
	Sender      recipient   `json:"sender"`
	To          []recipient `json:"to"`
	Subject     string      `json:"subject"`
	TextContent string      `json:"textContent"`
}

// Mailer queues and delivers transactional email.
type Mailer struct {
	cfg     Config
	client  *http.Client
	logger  *slog.Logger
	queue   chan *message
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// NewMailer creates a Mailer. An empty API key yields a disabled mailer
// that drops every message.
func NewMailer(cfg Config, logger *slog.Logger) *Mailer {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Mailer{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		queue:  make(chan *message, 100),
		done:   make(chan struct{}),
	}
}

// Enabled reports whether the mailer is configured to send.
func (m *Mailer) Enabled() bool {
	return m.cfg.APIKey != ""
}

// Start starts the delivery workers.
func (m *Mailer) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	if !m.Enabled() {
		m.logger.Info("mailer disabled, notifications will be dropped")
		return
	}

	m.logger.Info("starting mailer", "workers", m.cfg.Workers)

	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx, i)
	}
}

// Stop stops the mailer and waits for workers to finish.
func (m *Mailer) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.done)
	m.wg.Wait()
}

// worker delivers queued messages.
func (m *Mailer) worker(ctx context.Context, id int) {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return
		case <-ctx.Done():
			return
		case msg := <-m.queue:
			if err := m.deliver(ctx, msg); err != nil {
				m.logger.Error("mail delivery failed",
					"worker_id", id,
					"subject", msg.Subject,
					"error", err)
			}
		}
	}
}

// enqueue queues one message without blocking. A full queue drops the
// message; registration outcomes never wait on mail.
func (m *Mailer) enqueue(msg *message) {
	if !m.Enabled() {
		m.logger.Debug("mailer disabled, dropping message", "subject", msg.Subject)
		return
	}

	msg.Sender = recipient{Email: m.cfg.Sender}

	select {
	case m.queue <- msg:
	default:
		m.logger.Warn("mail queue full, dropping message", "subject", msg.Subject)
	}
}

// deliver sends one message to the transactional email API.
func (m *Mailer) deliver(ctx context.Context, msg *message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	m.logger.Debug("mail delivered", "subject", msg.Subject)
	return nil
}
