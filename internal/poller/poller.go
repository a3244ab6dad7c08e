package poller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/formintake/internal/graph"
	"github.com/teemow/formintake/internal/instrumentation"
	"github.com/teemow/formintake/internal/logging"
	"github.com/teemow/formintake/internal/sentinel"
	"github.com/teemow/formintake/internal/state"
)

const (
	// DefaultSubject is the phrase matched against message subjects.
	DefaultSubject = "User Creation/Modification Request"

	// DefaultBootstrapWindow is how far back the first run looks.
	DefaultBootstrapWindow = time.Hour

	// AttachmentPathKey is the sentinel key carrying a downloaded file's path.
	AttachmentPathKey = "attachment_file_path"
)

// Mailbox is the part of the Graph client the poller needs.
type Mailbox interface {
	ListMessages(ctx context.Context, since time.Time) ([]graph.Message, error)
	ListAttachments(ctx context.Context, messageID string) ([]graph.Attachment, error)
}

// Config controls a poll run.
type Config struct {
	Subject         string
	BootstrapWindow time.Duration
	CursorPolicy    CursorPolicy
}

// Result summarizes a run.
type Result struct {
	Scanned     int
	Skipped     int
	Matched     int
	Attachments []string // full paths in download order
	Cursor      *state.Cursor
}

// Poller processes one mailbox into one state directory.
type Poller struct {
	mailbox  Mailbox
	store    *state.Store
	out      io.Writer
	sentinel *sentinel.Writer
	config   Config
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	now      func() time.Time
	fileName func(string) string
}

// Option customizes a Poller.
type Option func(*Poller)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records run, message and attachment metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// WithFileNamer replaces the on-disk naming of attachments.
func WithFileNamer(fn func(string) string) Option {
	return func(p *Poller) { p.fileName = fn }
}

// New returns a Poller writing progress lines to out.
func New(mailbox Mailbox, store *state.Store, out io.Writer, config Config, opts ...Option) *Poller {
	if config.Subject == "" {
		config.Subject = DefaultSubject
	}
	if config.BootstrapWindow <= 0 {
		config.BootstrapWindow = DefaultBootstrapWindow
	}
	if config.CursorPolicy == "" {
		config.CursorPolicy = PolicyMax
	}

	p := &Poller{
		mailbox:  mailbox,
		store:    store,
		out:      out,
		sentinel: sentinel.NewWriter(out),
		config:   config,
		logger:   logging.Discard(),
		now:      time.Now,
		fileName: graph.UniqueFilename,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.WithOperation(p.logger, "poll")
	return p
}

// Run performs one pass. Any error aborts the pass; files written before the
// error are kept.
func (p *Poller) Run(ctx context.Context) (Result, error) {
	ctx, span := instrumentation.StartSpan(ctx, "poll.run")
	defer span.End()

	var res Result
	start := time.Now()
	err := p.run(ctx, &res)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		span.SetAttributes(
			attribute.Int("poll.scanned", res.Scanned),
			attribute.Int("poll.matched", res.Matched),
			attribute.Int(instrumentation.SpanAttrAttachmentCount, len(res.Attachments)),
		)
		instrumentation.SetSpanSuccess(span)
	}
	p.metrics.RecordPollRun(ctx, status, mailboxOf(p.mailbox), time.Since(start))

	return res, err
}

func (p *Poller) run(ctx context.Context, res *Result) error {
	// Messages are compared against the cursor as loaded, not as it moves
	// during the pass.
	cursor, err := p.store.LoadCursor()
	if err != nil {
		return err
	}
	res.Cursor = cursor

	var since time.Time
	if cursor == nil {
		p.println("No last processed email found. Fetching emails from the last hour...")
		since = p.now().Add(-p.config.BootstrapWindow)
	}

	messages, err := p.mailbox.ListMessages(ctx, since)
	if err != nil {
		return err
	}
	p.logger.Debug("fetched messages", slog.Int("count", len(messages)), slog.Bool("bootstrap", cursor == nil))

	subject := strings.ToLower(p.config.Subject)
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Scanned++

		if cursor != nil && !msg.ReceivedDateTime.After(cursor.ReceivedDateTime) {
			res.Skipped++
			p.metrics.RecordMessage(ctx, instrumentation.OutcomeSkipped)
			continue
		}
		if !strings.Contains(strings.ToLower(msg.Subject), subject) {
			p.metrics.RecordMessage(ctx, instrumentation.OutcomeIgnored)
			continue
		}

		if err := p.process(ctx, msg, res); err != nil {
			return err
		}
		res.Matched++
		p.metrics.RecordMessage(ctx, instrumentation.OutcomeMatched)
	}

	p.println("Email processing completed.")
	return nil
}

func (p *Poller) process(ctx context.Context, msg graph.Message, res *Result) (err error) {
	ctx, span := instrumentation.StartSpan(ctx, "poll.message",
		attribute.String(instrumentation.SpanAttrMessageID, msg.ID))
	defer func() {
		if err != nil {
			instrumentation.SetSpanError(span, err)
		}
		span.End()
	}()

	logger := p.logger.With(logging.MessageID(msg.ID))

	entry := state.MatchedEmail{
		Subject:          msg.Subject,
		From:             msg.Sender(),
		ReceivedDateTime: msg.ReceivedDateTime,
		BodyPreview:      msg.BodyPreview,
	}
	if err := p.store.AppendMatched(entry); err != nil {
		return err
	}

	downloaded := len(res.Attachments)
	if err := p.download(ctx, msg.ID, res, logger); err != nil {
		return err
	}
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrAttachmentCount, len(res.Attachments)-downloaded))

	next := state.Cursor{ID: msg.ID, ReceivedDateTime: msg.ReceivedDateTime}
	if p.advance(res.Cursor, next) {
		if err := p.store.SaveCursor(next); err != nil {
			return err
		}
		res.Cursor = &next
	}

	p.printf("Matching email processed: subject=%q from=%s receivedDateTime=%s\n",
		entry.Subject, entry.From, entry.ReceivedDateTime.UTC().Format(time.RFC3339))
	logger.Info("matching email processed", logging.Status(instrumentation.StatusSuccess))
	return nil
}

// advance reports whether next should replace current under the configured policy.
func (p *Poller) advance(current *state.Cursor, next state.Cursor) bool {
	if current == nil || p.config.CursorPolicy == PolicyLast {
		return true
	}
	return next.ReceivedDateTime.After(current.ReceivedDateTime)
}

func (p *Poller) download(ctx context.Context, messageID string, res *Result, logger *slog.Logger) error {
	attachments, err := p.mailbox.ListAttachments(ctx, messageID)
	if err != nil {
		return err
	}

	for _, att := range attachments {
		if !att.IsFile() {
			logger.Debug("skipping non-file attachment",
				logging.Attachment(att.Name), slog.String("type", att.ODataType))
			continue
		}

		data, err := att.Decode()
		if err != nil {
			return err
		}

		name := p.fileName(att.Name)
		path, err := p.store.WriteAttachment(name, data)
		if err != nil {
			return err
		}
		res.Attachments = append(res.Attachments, path)
		p.metrics.RecordAttachment(ctx, int64(len(data)))
		instrumentation.AddSpanEvent(trace.SpanFromContext(ctx), "attachment.written",
			attribute.String("file.name", name), attribute.Int("file.size", len(data)))

		p.printf("Downloaded attachment: %s\n", name)
		if err := p.sentinel.Emit(AttachmentPathKey, path); err != nil {
			return fmt.Errorf("failed to write attachment path: %w", err)
		}
		logger.Debug("downloaded attachment", logging.Attachment(name), logging.Path(path))
	}
	return nil
}

func (p *Poller) println(line string) {
	_, _ = fmt.Fprintln(p.out, line)
}

func (p *Poller) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// mailboxOf returns the mailbox address when the implementation exposes one.
func mailboxOf(mb Mailbox) string {
	if named, ok := mb.(interface{ Mailbox() string }); ok {
		return named.Mailbox()
	}
	return ""
}
