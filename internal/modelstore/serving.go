package modelstore

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

// ServingModel calls a TensorFlow Serving REST endpoint:
// POST {Endpoint}/v1/models/{Name}:predict with {"instances": [window]}.
type ServingModel struct {
	Endpoint string
	Name     string
	Client   *http.Client
}

// NewServingModel creates a ServingModel with a bounded HTTP timeout.
func NewServingModel(endpoint, name string, timeout time.Duration) *ServingModel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ServingModel{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Name:     name,
		Client:   &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error"`
}

// Infer implements forecast.SequenceModel.
func (m *ServingModel) Infer(ctx context.Context, window [][]float64) (float64, error) {
	body, err := json.Marshal(predictRequest{Instances: [][][]float64{window}})
	if err != nil {
		return 0, fmt.Errorf("marshal instances: %w", err)
	}
	u := fmt.Sprintf("%s/v1/models/%s:predict", m.Endpoint, m.Name)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("serving request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("serving read body: %w", err)
	}

	var pr predictResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return 0, fmt.Errorf("serving decode (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || pr.Error != "" {
		return 0, fmt.Errorf("serving: status %d: %s", resp.StatusCode, pr.Error)
	}
	if len(pr.Predictions) == 0 {
		return 0, fmt.Errorf("serving: empty predictions")
	}
	return firstScalar(pr.Predictions[0])
}

// firstScalar accepts either a bare number or a (nested) list and returns its
// first element.
func firstScalar(raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return 0, fmt.Errorf("serving: unexpected prediction %s", string(raw))
	}
	if len(list) == 0 {
		return 0, fmt.Errorf("serving: empty prediction")
	}
	return firstScalar(list[0])
}
