package bridge

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/jobai-assistant/internal/logger"
)

// DefaultTimeout bounds a single bridge round-trip.
const DefaultTimeout = 3 * time.Second

// Hub routes messages to the page script attached to each tab.
type Hub struct {
	mu      sync.RWMutex
	scripts map[string]*PageScript
	logger  *zap.Logger
}

// NewHub returns an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		scripts: make(map[string]*PageScript),
		logger:  logger.OrNop(log),
	}
}

// Attach starts script for tabID, replacing and stopping any other script already there.
// Attaching a script that is already attached to tabID is a no-op.
// The script runs until ctx is done or it is detached.
func (h *Hub) Attach(ctx context.Context, tabID string, script *PageScript) {
	h.mu.Lock()
	previous := h.scripts[tabID]
	h.scripts[tabID] = script
	h.mu.Unlock()

	if previous == script {
		return
	}
	if previous != nil {
		previous.Stop()
	}

	go script.Run(ctx)
	h.logger.Debug("page script attached", zap.String(logger.FieldTab, tabID), zap.String("url", script.page.URL()))
}

// Detach stops the script for tabID, if any.
func (h *Hub) Detach(tabID string) {
	h.mu.Lock()
	script := h.scripts[tabID]
	delete(h.scripts, tabID)
	h.mu.Unlock()

	if script != nil {
		script.Stop()
	}
}

// Send delivers req to the script of tabID and waits for its reply or ctx.
func (h *Hub) Send(ctx context.Context, tabID string, req Request) (*Response, error) {
	h.mu.RLock()
	script := h.scripts[tabID]
	h.mu.RUnlock()

	if script == nil {
		return nil, &ChannelUnavailableError{TabID: tabID, Message: "receiving end does not exist"}
	}

	return script.deliver(ctx, tabID, req)
}

// Client is the UI-surface side of the bridge for one tab.
type Client struct {
	Hub     *Hub
	TabID   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// RequestJobDescription asks the tab's page script for its job description.
// Every way of not getting a non-empty description is a ChannelUnavailableError.
func (c *Client) RequestJobDescription(ctx context.Context) (string, error) {
	if c.Hub == nil {
		return "", &ChannelUnavailableError{TabID: c.TabID, Message: "no bridge hub"}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.Hub.Send(ctx, c.TabID, Request{Type: TypeGetJobDescription})
	if err != nil {
		return "", err
	}

	if !resp.OK {
		message := resp.Error
		if message == "" {
			message = "Failed to extract JD"
		}
		return "", &ChannelUnavailableError{TabID: c.TabID, Message: message}
	}

	jd := strings.TrimSpace(resp.JD)
	if jd == "" {
		return "", &ChannelUnavailableError{TabID: c.TabID, Message: "page has no job description"}
	}

	logger.OrNop(c.Logger).Debug("received job description",
		zap.String(logger.FieldTab, c.TabID), zap.Int("chars", len(jd)))

	return jd, nil
}
