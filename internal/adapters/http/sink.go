// Package http posts record chunks to an HTTP ingest endpoint.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// DefaultTimeout bounds one chunk request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is quoted in errors.
const maxErrorBody = 512

// Client is the subset of *http.Client the sink needs.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the endpoint parameters of an HTTP sink.
type Config struct {
	URL     string
	AuthKey string
	Timeout time.Duration
}

// Validate checks the config for required fields.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: http sink url is required", domain.ErrInvalidConfig)
	}
	return nil
}

// chunkRequest is the body posted for each chunk.
type chunkRequest struct {
	Operation string          `json:"operation"`
	WriteOp   string          `json:"write_op"`
	Records   []domain.Record `json:"records"`
}

// chunkResponse is the optional body of a 2xx reply. Endpoints that reply
// without a body accept the whole chunk.
type chunkResponse struct {
	Applied    *int     `json:"applied"`
	Rejections []string `json:"rejections"`
}

// Sink implements ports.WriteSink by posting each chunk as one JSON request.
type Sink struct {
	client    Client
	cfg       Config
	operation string
	logger    ports.Logger
}

var _ ports.WriteSink = (*Sink)(nil)

// NewSink creates a sink posting chunks of operation to cfg.URL.
// A nil client uses an *http.Client with cfg.Timeout.
func NewSink(client Client, cfg Config, operation string, logger ports.Logger) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Sink{
		client:    client,
		cfg:       cfg,
		operation: operation,
		logger:    logger,
	}, nil
}

// Apply posts records and maps the reply onto an outcome.
func (s *Sink) Apply(ctx context.Context, op domain.WriteOp, records []domain.Record) domain.ApplyResult {
	if op != domain.OpInsert {
		return domain.TotalFailure(fmt.Errorf("%w: %s", domain.ErrUnsupportedOperation, op))
	}

	body, err := json.Marshal(chunkRequest{
		Operation: s.operation,
		WriteOp:   op.String(),
		Records:   records,
	})
	if err != nil {
		return domain.TotalFailure(fmt.Errorf("marshal chunk: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return domain.TotalFailure(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Bulkload-Operation", s.operation)
	req.Header.Set("User-Agent", "bulkload ("+runtime.GOOS+"/"+runtime.GOARCH+")")
	if s.cfg.AuthKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.AuthKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.TotalFailure(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.TotalFailure(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode/100 != 2 {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return domain.TotalFailure(fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody)))
	}

	return classify(respBody, len(records), s.logger)
}

// classify maps a 2xx body onto an outcome.
func classify(body []byte, submitted int, logger ports.Logger) domain.ApplyResult {
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.FullSuccess(submitted)
	}

	var r chunkResponse
	if err := json.Unmarshal(body, &r); err != nil {
		logger.Debug("ingest response is not JSON, counting chunk as applied", ports.Err(err))
		return domain.FullSuccess(submitted)
	}
	if r.Applied == nil || *r.Applied >= submitted {
		return domain.FullSuccess(submitted)
	}
	if *r.Applied <= 0 {
		return domain.TotalFailure(errors.New(firstOr(r.Rejections, "endpoint applied no records")))
	}
	return domain.PartialSuccess(*r.Applied, r.Rejections)
}

func firstOr(reasons []string, fallback string) string {
	if len(reasons) > 0 {
		return reasons[0]
	}
	return fallback
}
