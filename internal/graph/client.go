package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/formintake/internal/instrumentation"
	"github.com/teemow/formintake/internal/logging"
)

const (
	// DefaultBaseURL is the Graph v1.0 endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// DefaultTimeout bounds every HTTP request.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response is kept in APIError.
	maxErrorBody = 64 * 1024

	filterTimeLayout = "2006-01-02T15:04:05Z"
)

// Options tune the client. The zero value talks to the public Graph cloud.
type Options struct {
	BaseURL      string // default DefaultBaseURL
	AuthorityURL string // default https://login.microsoftonline.com
	Scope        string // default DefaultScope
	Timeout      time.Duration
	Metrics      *instrumentation.Metrics
	Logger       *slog.Logger
}

// Client reads one mailbox through Graph.
type Client struct {
	http    *http.Client
	baseURL string
	mailbox string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewClient exchanges the credentials for an access token and returns a
// client bound to mailbox. A failed exchange returns an *AuthError.
func NewClient(ctx context.Context, creds Credentials, mailbox string, opts Options) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if mailbox == "" {
		return nil, fmt.Errorf("mailbox address is required")
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	transport := otelhttp.NewTransport(newBaseTransport())
	base := &http.Client{Timeout: opts.Timeout, Transport: transport}

	conf := tokenConfig(creds, opts.AuthorityURL, opts.Scope)
	tok, err := fetchToken(ctx, conf, creds.TenantID, base, opts.Metrics)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("access token acquired",
		logging.Operation(instrumentation.OperationToken),
		slog.String("token", logging.SanitizeToken(tok.AccessToken)),
		slog.Time("expiry", tok.Expiry))

	// Refreshes, if the run outlives the token, go through the same base client.
	refreshCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	ts := oauth2.ReuseTokenSource(tok, conf.TokenSource(refreshCtx))

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &oauth2.Transport{Source: ts, Base: transport},
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		mailbox: mailbox,
		metrics: opts.Metrics,
		logger:  logging.WithOperation(opts.Logger, "graph"),
	}, nil
}

// Mailbox returns the mailbox address this client reads.
func (c *Client) Mailbox() string {
	return c.mailbox
}

// ListMessages returns the mailbox's messages in the order Graph returns them.
// When since is non-zero the request is filtered server-side to messages
// received at or after since; otherwise it is unfiltered.
func (c *Client) ListMessages(ctx context.Context, since time.Time) ([]Message, error) {
	u := c.baseURL + "/users/" + url.PathEscape(c.mailbox) + "/messages"
	if !since.IsZero() {
		filter := "receivedDateTime ge " + since.UTC().Format(filterTimeLayout)
		u += "?$filter=" + url.PathEscape(filter)
	}

	var list messageList
	if err := c.get(ctx, instrumentation.OperationListMessages, "list messages", u, &list); err != nil {
		return nil, err
	}
	if list.NextLink != "" {
		c.logger.Debug("more messages available, not following next link",
			slog.Int("returned", len(list.Value)))
	}
	return list.Value, nil
}

// ListAttachments returns all attachments of a message, including content
// for file attachments.
func (c *Client) ListAttachments(ctx context.Context, messageID string) ([]Attachment, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}

	u := c.baseURL + "/users/" + url.PathEscape(c.mailbox) + "/messages/" + url.PathEscape(messageID) + "/attachments"

	var list attachmentList
	op := "list attachments for message " + messageID
	if err := c.get(ctx, instrumentation.OperationListAttachments, op, u, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

func (c *Client) get(ctx context.Context, operation, desc, rawURL string, out any) (err error) {
	ctx, span := instrumentation.StartGraphSpan(ctx, operation,
		attribute.String(instrumentation.SpanAttrMailboxDomain, instrumentation.ExtractMailboxDomain(c.mailbox)))
	defer span.End()

	start := time.Now()
	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		c.metrics.RecordGraphOperation(ctx, operation, status, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request to %s: %w", desc, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", desc, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Op: desc, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response to %s: %w", desc, err)
	}
	return nil
}
