package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bnkchallenge/internal/modules/notify/domain"
	apperrors "bnkchallenge/internal/platform/errors"
)

const (
	maxResponseBody = 64 << 10
	failedMessage   = "전송 실패"
)

// HTTPSender posts notifications to the admin API.
type HTTPSender struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPSender sends authorization verbatim, e.g. "Bearer user-1".
func NewHTTPSender(baseURL, authorization string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   authorization,
		client:  &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	Token string `json:"token,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *HTTPSender) Send(ctx context.Context, n domain.Notification) (domain.Receipt, error) {
	return s.post(ctx, "/notifications/send", sendRequest{Token: n.Token, Title: n.Title, Body: n.Body})
}

func (s *HTTPSender) Broadcast(ctx context.Context, n domain.Notification) (domain.Receipt, error) {
	return s.post(ctx, "/notifications/broadcast-challenge", sendRequest{Title: n.Title, Body: n.Body})
}

func (s *HTTPSender) post(ctx context.Context, path string, payload sendRequest) (domain.Receipt, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: POST %s: %v", apperrors.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: read %s: %v", apperrors.ErrUpstream, path, err)
	}
	receipt := domain.Receipt{Status: resp.StatusCode, Payload: body}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return receipt, fmt.Errorf("%w: POST %s: status %d: %s", apperrors.ErrUpstream, path, resp.StatusCode, serverMessage(body))
	}
	return receipt, nil
}

// serverMessage picks the human readable reason out of an error body.
func serverMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		switch d := parsed.Detail.(type) {
		case string:
			if d != "" {
				return d
			}
		case nil:
		default:
			if encoded, err := json.Marshal(d); err == nil {
				return string(encoded)
			}
		}
	}
	return failedMessage
}
