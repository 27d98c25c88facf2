package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPScorer scores artifacts by posting them to an external scoring service.
// The service receives the artifact as the multipart "file" field on
// POST {url}/score and responds with {"score": n}.
type HTTPScorer struct {
	kind   string
	client *resty.Client
}

// NewHTTPScorer constructs a scorer for the service at the specified url.
// The kind is sent with every request so one service can host both the
// video and the audio models.
func NewHTTPScorer(kind string, url string, timeout time.Duration) *HTTPScorer {
	client := resty.New().
		SetBaseURL(url).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &HTTPScorer{
		kind:   kind,
		client: client,
	}
}

// Score implements the Scorer interface.
func (s *HTTPScorer) Score(ctx context.Context, path string) (int, error) {
	var result struct {
		Score *float64 `json:"score"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetFile("file", path).
		SetFormData(map[string]string{"kind": s.kind}).
		SetResult(&result).
		Post("/score")
	if err != nil {
		return 0, fmt.Errorf("posting %s to scorer: %w", s.kind, err)
	}

	if resp.IsError() {
		return 0, fmt.Errorf("%s scorer responded with status %d", s.kind, resp.StatusCode())
	}

	if result.Score == nil {
		return 0, errors.New("scorer response missing score")
	}

	return int(*result.Score), nil
}
