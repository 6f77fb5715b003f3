package bridge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/jobai-assistant/internal/extract"
	"github.com/jonathan/jobai-assistant/internal/logger"
)

type envelope struct {
	ctx   context.Context
	req   Request
	reply chan Response
}

// PageScript is the page-context side of the bridge. It owns one page and answers
// requests about it one at a time.
type PageScript struct {
	page      Page
	extractor *extract.Extractor
	logger    *zap.Logger

	inbox    chan envelope
	done     chan struct{}
	stopOnce sync.Once
}

// NewPageScript creates a script for page. A nil extractor selects hints for the page's platform.
func NewPageScript(page Page, extractor *extract.Extractor, log *zap.Logger) *PageScript {
	if extractor == nil {
		extractor = extract.New(extract.DetectPlatform(page.URL()))
	}
	return &PageScript{
		page:      page,
		extractor: extractor,
		logger:    logger.OrNop(log),
		inbox:     make(chan envelope),
		done:      make(chan struct{}),
	}
}

// Run serves requests until ctx is done or Stop is called.
func (s *PageScript) Run(ctx context.Context) {
	defer s.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case env := <-s.inbox:
			s.serve(env)
		}
	}
}

// Stop unloads the script. Pending and future requests see no receiver.
func (s *PageScript) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *PageScript) serve(env envelope) {
	defer close(env.reply)

	// Listeners only answer the message types they know.
	if env.req.Type != TypeGetJobDescription {
		s.logger.Debug("ignoring message", zap.String("type", env.req.Type))
		return
	}

	env.reply <- s.handleGetJobDescription(env.ctx)
}

func (s *PageScript) handleGetJobDescription(ctx context.Context) Response {
	doc, err := s.page.Document(ctx)
	if err != nil {
		s.logger.Debug("page document unavailable", zap.String("url", s.page.URL()), zap.Error(err))
		return Response{OK: false, Error: err.Error()}
	}

	out := extract.Safe(s.extractor, doc)
	if !out.OK {
		return Response{OK: false, Error: out.Err.Error()}
	}

	s.logger.Debug("extracted job description",
		zap.String("url", s.page.URL()),
		zap.Int("chars", len(out.JD)),
		zap.String("preview", logger.TruncateForLog(out.JD, 80)))

	return Response{OK: true, JD: out.JD}
}

// deliver hands req to the script and waits for its reply.
func (s *PageScript) deliver(ctx context.Context, tabID string, req Request) (*Response, error) {
	env := envelope{ctx: ctx, req: req, reply: make(chan Response, 1)}

	select {
	case s.inbox <- env:
	case <-s.done:
		return nil, &ChannelUnavailableError{TabID: tabID, Message: "receiving end does not exist"}
	case <-ctx.Done():
		return nil, &ChannelUnavailableError{TabID: tabID, Message: "no response", Cause: ctx.Err()}
	}

	select {
	case resp, ok := <-env.reply:
		if err := ctx.Err(); err != nil {
			return nil, &ChannelUnavailableError{TabID: tabID, Message: "no response", Cause: err}
		}
		if !ok {
			return nil, &ChannelUnavailableError{TabID: tabID, Message: "no response"}
		}
		return &resp, nil
	case <-ctx.Done():
		return nil, &ChannelUnavailableError{TabID: tabID, Message: "no response", Cause: ctx.Err()}
	}
}
