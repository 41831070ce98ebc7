package fitengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// CreateRequest carries everything the submission controller assembles for
// one session-creation call. PhotoFile and PhotoURL are mutually exclusive on
// the wire; when both are resolvable the file wins.
type CreateRequest struct {
	PhotoFile  io.Reader
	PhotoName  string
	PhotoURL   string
	Products   []ProductRef
	RetailerId string
	Guest      bool
}

// StatusResult is the normalized outcome of one status fetch.
type StatusResult struct {
	Status    Status
	ResultURL string
}

// Client is the session-service contract the engine consumes. The service
// itself is owned elsewhere; only this surface is relied upon.
type Client interface {
	CreateSession(ctx context.Context, req CreateRequest) (string, error)
	SessionStatus(ctx context.Context, sessionId string) (StatusResult, error)
	SetFavorite(ctx context.Context, sessionId string, favorite bool) (*Session, error)
	SubmitFeedback(ctx context.Context, sessionId string, satisfied bool, message string) (*Session, error)
	DeleteSession(ctx context.Context, sessionId string) error
}

// envelope is the service's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type sessionPayload struct {
	SessionId   string       `json:"sessionId"`
	Status      string       `json:"status"`
	ResultURL   string       `json:"resultUrl"`
	Images      []string     `json:"images"`
	IsFavorite  bool         `json:"is_favorite"`
	Satisfied   *bool        `json:"satisfied"`
	Feedback    string       `json:"feedback"`
	Products    []ProductRef `json:"products"`
	RetailerId  string       `json:"retailer_id"`
	CreatedAt   *time.Time   `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at"`
}

// HTTPClient talks to the remote session service over HTTP.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	token   func() string
}

// NewHTTPClient builds a client for the service at baseURL. token, if
// non-nil, supplies the current bearer token per request (it changes when the
// bridge resolves).
func NewHTTPClient(baseURL string, token func() string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
		token:   token,
	}
}

func (c *HTTPClient) CreateSession(ctx context.Context, req CreateRequest) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if req.PhotoFile != nil {
		part, err := w.CreateFormFile("photo", req.PhotoName)
		if err != nil {
			return "", &TransientError{Op: "create session", Err: err}
		}
		if _, err := io.Copy(part, req.PhotoFile); err != nil {
			return "", &TransientError{Op: "create session", Err: err}
		}
	} else {
		_ = w.WriteField("photo_url", req.PhotoURL)
	}

	products, err := json.Marshal(req.Products)
	if err != nil {
		return "", &TransientError{Op: "create session", Err: err}
	}
	_ = w.WriteField("products", string(products))
	_ = w.WriteField("retailer_id", req.RetailerId)
	_ = w.WriteField("is_guest", fmt.Sprintf("%t", req.Guest))
	if err := w.Close(); err != nil {
		return "", &TransientError{Op: "create session", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/fit-sessions", &body)
	if err != nil {
		return "", &TransientError{Op: "create session", Err: err}
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	c.authorize(httpReq)

	env, err := c.do(httpReq, "create session")
	if err != nil {
		return "", err
	}

	var data sessionPayload
	if err := json.Unmarshal(env.Data, &data); err != nil || data.SessionId == "" {
		return "", &TerminalError{Op: "create session", Message: "malformed session response"}
	}
	return data.SessionId, nil
}

// SessionStatus performs one status fetch. Transport failures come back as
// TransientError so the poller can keep counting; any unreadable or missing
// status shape decodes to StatusUnknown rather than an error.
func (c *HTTPClient) SessionStatus(ctx context.Context, sessionId string) (StatusResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/fit-sessions/"+sessionId+"/status", nil)
	if err != nil {
		return StatusResult{}, &TransientError{Op: "session status", Err: err}
	}
	c.authorize(httpReq)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return StatusResult{}, &TransientError{Op: "session status", Err: err}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		// Unreadable body on a status fetch is "still processing", not an
		// error; the attempt budget is the backstop.
		return StatusResult{Status: StatusUnknown}, nil
	}

	var data sessionPayload
	if env.Data != nil {
		_ = json.Unmarshal(env.Data, &data)
	}
	res := StatusResult{Status: ParseStatus(data.Status), ResultURL: data.ResultURL}
	if res.ResultURL == "" && len(data.Images) > 0 {
		res.ResultURL = data.Images[0]
	}
	return res, nil
}

func (c *HTTPClient) SetFavorite(ctx context.Context, sessionId string, favorite bool) (*Session, error) {
	return c.patchSession(ctx, sessionId, "/favorite", map[string]any{"is_favorite": favorite})
}

func (c *HTTPClient) SubmitFeedback(ctx context.Context, sessionId string, satisfied bool, message string) (*Session, error) {
	return c.patchSession(ctx, sessionId, "/feedback", map[string]any{
		"satisfied": satisfied,
		"message":   message,
	})
}

func (c *HTTPClient) DeleteSession(ctx context.Context, sessionId string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/fit-sessions/"+sessionId, nil)
	if err != nil {
		return &TransientError{Op: "delete session", Err: err}
	}
	c.authorize(httpReq)
	_, err = c.do(httpReq, "delete session")
	return err
}

func (c *HTTPClient) patchSession(ctx context.Context, sessionId, suffix string, payload map[string]any) (*Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransientError{Op: "update session", Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.baseURL+"/api/fit-sessions/"+sessionId+suffix, bytes.NewReader(body))
	if err != nil {
		return nil, &TransientError{Op: "update session", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	env, err := c.do(httpReq, "update session")
	if err != nil {
		return nil, err
	}

	var data sessionPayload
	if env.Data == nil || json.Unmarshal(env.Data, &data) != nil {
		// Mutation succeeded but the record did not come back; the optimistic
		// value stands.
		return nil, nil
	}
	return data.toSession(sessionId), nil
}

func (c *HTTPClient) do(req *http.Request, op string) (*envelope, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &TransientError{Op: op, Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("request rejected (status %d)", resp.StatusCode)
		}
		return nil, &TerminalError{Op: op, Message: msg}
	}
	return &env, nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.token == nil {
		return
	}
	if t := c.token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
}

func (p *sessionPayload) toSession(fallbackId string) *Session {
	id := p.SessionId
	if id == "" {
		id = fallbackId
	}
	s := &Session{
		Id:          id,
		Status:      ParseStatus(p.Status),
		ResultURL:   p.ResultURL,
		Products:    p.Products,
		RetailerId:  p.RetailerId,
		IsFavorite:  p.IsFavorite,
		Satisfied:   p.Satisfied,
		Feedback:    p.Feedback,
		ProcessedAt: p.ProcessedAt,
	}
	if p.CreatedAt != nil {
		s.CreatedAt = *p.CreatedAt
	}
	return s
}
