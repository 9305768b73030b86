package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable indicates the inference service is unreachable or
// answered with something other than a score.
var ErrUnavailable = errors.New("classification service unavailable")

// ZeroShot scores text against a candidate label through an HTTP
// zero-shot classification endpoint (the Hugging Face inference wire
// shape: inputs + candidate_labels in, parallel labels/scores out).
type ZeroShot struct {
	Client   *http.Client
	Endpoint string
	Token    string // optional bearer token
}

func NewZeroShot(client *http.Client, endpoint, token string) *ZeroShot {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ZeroShot{Client: client, Endpoint: endpoint, Token: token}
}

type zeroShotRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		CandidateLabels []string `json:"candidate_labels"`
	} `json:"parameters"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func (z *ZeroShot) Score(ctx context.Context, text, label string) (float64, error) {
	reqBody := zeroShotRequest{Inputs: text}
	reqBody.Parameters.CandidateLabels = []string{label}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if z.Token != "" {
		req.Header.Set("Authorization", "Bearer "+z.Token)
	}

	resp, err := z.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out zeroShotResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	for i, l := range out.Labels {
		if l == label && i < len(out.Scores) {
			return out.Scores[i], nil
		}
	}
	if len(out.Scores) > 0 {
		return out.Scores[0], nil
	}
	return 0, fmt.Errorf("%w: empty score list", ErrUnavailable)
}
