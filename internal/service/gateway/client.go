package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Endpoint paths exposed by the remote chatbot backend.
const (
	PathUserInput = "/post_userinput"
	PathFeedback  = "/submit_feedback"
	PathRating    = "/submit_rating"
)

// DefaultBaseURL is the hosted backend the web screens were built against.
const DefaultBaseURL = "https://tha-minor-project-1.onrender.com"

// ErrMalformedReply is returned when the chat endpoint answers 2xx without a reply.
var ErrMalformedReply = errors.New("gateway reply missing chatbot_response")

// StatusError reports a non-2xx answer from one of the endpoints.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway %s returned status %d: %s", e.Endpoint, e.Code, e.Body)
}

type userInputRequest struct {
	Input  string `json:"input"`
	UserID string `json:"user_id,omitempty"`
}

type userInputResponse struct {
	ChatbotResponse *string `json:"chatbot_response"`
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
	UserID   string `json:"user_id,omitempty"`
}

type ratingRequest struct {
	Rating int    `json:"rating"`
	UserID string `json:"user_id,omitempty"`
}

// Client talks to the chat, feedback and rating endpoints over JSON/HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client rooted at baseURL. A zero timeout keeps the transport default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the root every endpoint path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostUserInput sends the user's text and returns the chatbot reply.
func (c *Client) PostUserInput(ctx context.Context, userID, text string) (string, error) {
	var resp userInputResponse
	if err := c.post(ctx, PathUserInput, userInputRequest{Input: text, UserID: userID}, &resp); err != nil {
		return "", err
	}
	if resp.ChatbotResponse == nil {
		return "", ErrMalformedReply
	}
	return *resp.ChatbotResponse, nil
}

// SubmitFeedback posts free-text feedback. The response body is ignored.
func (c *Client) SubmitFeedback(ctx context.Context, userID, feedback string) error {
	return c.post(ctx, PathFeedback, feedbackRequest{Feedback: feedback, UserID: userID}, nil)
}

// SubmitRating posts a 1-5 star rating. The response body is ignored.
func (c *Client) SubmitRating(ctx context.Context, userID string, rating int) error {
	return c.post(ctx, PathRating, ratingRequest{Rating: rating, UserID: userID}, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Endpoint: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
