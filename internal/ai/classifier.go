package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// IClassifier assigns one label from a fixed set to a piece of text, with a
// confidence in [0,1]. Callers decide what to do below their threshold.
type IClassifier interface {
	Classify(ctx context.Context, text string) (string, float64, error)
}

// zeroShotClassifier calls a hosted zero-shot inference endpoint
// (bart-large-mnli style: candidate labels + hypothesis template).
type zeroShotClassifier struct {
	endpoint string
	token    string
	labels   []string
	client   *http.Client
}

type ZeroShotConfig struct {
	Endpoint string
	Token    string
	Labels   []string
	Timeout  time.Duration
}

func NewZeroShotClassifier(cfg ZeroShotConfig) (IClassifier, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("classifier endpoint is required")
	}
	if len(cfg.Labels) == 0 {
		return nil, fmt.Errorf("classifier labels are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &zeroShotClassifier{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		labels:   cfg.Labels,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels    []string `json:"candidate_labels"`
	HypothesisTemplate string   `json:"hypothesis_template"`
	MultiClass         bool     `json:"multi_class"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func (c *zeroShotClassifier) Classify(ctx context.Context, text string) (string, float64, error) {
	reqBody := zeroShotRequest{
		Inputs: text,
		Parameters: zeroShotParameters{
			CandidateLabels:    c.labels,
			HypothesisTemplate: "This article is about {}.",
			MultiClass:         false,
		},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", 0, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("classify request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	var out zeroShotResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, err
	}
	if len(out.Labels) == 0 || len(out.Scores) == 0 {
		return "", 0, fmt.Errorf("classify response has no labels")
	}
	return out.Labels[0], out.Scores[0], nil
}
