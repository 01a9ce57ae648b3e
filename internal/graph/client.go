package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"outlookmcp/internal/logging"
)

const (
	// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// DefaultHTTPTimeout bounds every Graph request.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxResults is used when a caller does not cap list sizes.
	DefaultMaxResults = 10
)

// Service labels for operation metrics.
const (
	serviceMail     = "mail"
	serviceCalendar = "calendar"
)

// ErrUnauthenticated indicates the downstream call had no valid token or
// the token was rejected by Graph.
var ErrUnauthenticated = errors.New("not authenticated")

// TokenFunc supplies the current access token for the client's account.
// The second return is false when no valid token is available.
type TokenFunc func(ctx context.Context) (string, bool)

// MetricsRecorder receives downstream API call events for observability.
// Implemented by instrumentation.Metrics; nil-safe via SetMetrics.
type MetricsRecorder interface {
	RecordGraphOperation(ctx context.Context, service, operation, status string, duration time.Duration)
}

// Client is a Microsoft Graph client bound to one account.
type Client struct {
	account    string
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
	logger     *slog.Logger
	metrics    MetricsRecorder
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the Graph endpoint. Used in tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Graph client for an account. The token function is
// consulted on every request so refreshed tokens are picked up
// transparently.
func NewClient(account string, token TokenFunc, opts ...ClientOption) *Client {
	c := &Client{
		account:    account,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		token:      token,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Account returns the account name this client acts as.
func (c *Client) Account() string {
	return c.account
}

// SetMetrics attaches a metrics recorder. Safe to leave unset.
func (c *Client) SetMetrics(rec MetricsRecorder) {
	c.metrics = rec
}

// do performs one authenticated Graph request. out may be nil for
// responses without a body. Every call is recorded in the metrics
// pipeline, including ones rejected before a request is issued.
func (c *Client) do(ctx context.Context, service, op, method, path string, query url.Values, body, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			status := logging.StatusSuccess
			if err != nil {
				status = logging.StatusError
			}
			c.metrics.RecordGraphOperation(ctx, service, op, status, time.Since(start))
		}
	}()

	token, ok := c.token(ctx)
	if !ok {
		return fmt.Errorf("%w: account %q has no valid token; run account_login first",
			ErrUnauthenticated, c.account)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logger.Warn("graph rejected credentials",
			logging.Account(c.account),
			logging.Operation(op),
			slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: account %q was rejected by the API (status %d)",
			ErrUnauthenticated, c.account, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		gerr := &GraphError{
			Op:         op,
			Account:    c.account,
			StatusCode: resp.StatusCode,
		}
		var envelope apiError
		if data, readErr := io.ReadAll(resp.Body); readErr == nil {
			if json.Unmarshal(data, &envelope) == nil {
				gerr.Code = envelope.Error.Code
				gerr.Message = envelope.Error.Message
			}
		}
		return gerr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
	}
	return nil
}

// ListMessages returns the newest messages in a mail folder, most recent
// first. folder defaults to "inbox".
func (c *Client) ListMessages(ctx context.Context, folder string, maxResults int) ([]Message, error) {
	if folder == "" {
		folder = "inbox"
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	query := url.Values{
		"$top":     {strconv.Itoa(maxResults)},
		"$orderby": {"receivedDateTime desc"},
		"$select":  {"id,subject,from,receivedDateTime,bodyPreview,isRead"},
	}

	var resp listResponse[Message]
	path := fmt.Sprintf("/me/mailFolders/%s/messages", url.PathEscape(folder))
	if err := c.do(ctx, serviceMail, "list_messages", http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// SearchMessages searches messages across folders.
func (c *Client) SearchMessages(ctx context.Context, search string, maxResults int) ([]Message, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	query := url.Values{
		"$top":    {strconv.Itoa(maxResults)},
		"$search": {strconv.Quote(search)},
	}

	var resp listResponse[Message]
	if err := c.do(ctx, serviceMail, "search_messages", http.MethodGet, "/me/messages", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// GetMessage fetches one message including its full body.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	var msg Message
	path := "/me/messages/" + url.PathEscape(messageID)
	if err := c.do(ctx, serviceMail, "get_message", http.MethodGet, path, nil, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// sendMailRequest is the Graph sendMail action payload.
type sendMailRequest struct {
	Message         sendMailMessage `json:"message"`
	SaveToSentItems bool            `json:"saveToSentItems"`
}

type sendMailMessage struct {
	Subject      string      `json:"subject"`
	Body         ItemBody    `json:"body"`
	ToRecipients []Recipient `json:"toRecipients"`
}

// SendMail sends a plain-text message from the account's mailbox.
func (c *Client) SendMail(ctx context.Context, to []string, subject, body string) error {
	recipients := make([]Recipient, len(to))
	for i, addr := range to {
		recipients[i] = Recipient{EmailAddress: EmailAddress{Address: addr}}
	}

	payload := sendMailRequest{
		Message: sendMailMessage{
			Subject:      subject,
			Body:         ItemBody{ContentType: "text", Content: body},
			ToRecipients: recipients,
		},
		SaveToSentItems: true,
	}
	return c.do(ctx, serviceMail, "send_mail", http.MethodPost, "/me/sendMail", nil, payload, nil)
}

// ListEvents returns calendar events within the time window, soonest
// first.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time, maxResults int) ([]Event, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	query := url.Values{
		"startDateTime": {from.UTC().Format(time.RFC3339)},
		"endDateTime":   {to.UTC().Format(time.RFC3339)},
		"$top":          {strconv.Itoa(maxResults)},
		"$orderby":      {"start/dateTime"},
	}

	var resp listResponse[Event]
	if err := c.do(ctx, serviceCalendar, "list_events", http.MethodGet, "/me/calendarView", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// CreateEvent creates a calendar event with optional required attendees.
func (c *Client) CreateEvent(ctx context.Context, subject string, start, end time.Time, attendees []string) (*Event, error) {
	event := Event{
		Subject: subject,
		Start: DateTimeTimeZone{
			DateTime: start.UTC().Format("2006-01-02T15:04:05"),
			TimeZone: "UTC",
		},
		End: DateTimeTimeZone{
			DateTime: end.UTC().Format("2006-01-02T15:04:05"),
			TimeZone: "UTC",
		},
	}
	for _, addr := range attendees {
		event.Attendees = append(event.Attendees, Attendee{
			EmailAddress: EmailAddress{Address: addr},
			Type:         "required",
		})
	}

	var created Event
	if err := c.do(ctx, serviceCalendar, "create_event", http.MethodPost, "/me/events", nil, event, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
