package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	serverClient "github.com/bz888/tsdr/internal/api/server/client"
	"github.com/bz888/tsdr/internal/logger"
	"github.com/bz888/tsdr/pkg/errors"
	"go.uber.org/zap"
)

// Client calls the TS;DR HTTP API on behalf of the terminal UI.
type Client struct {
	generateURL string
	http        *http.Client
	logger      *zap.Logger
}

func NewClient(serverURL string) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", serverURL)
	}

	return &Client{
		generateURL: base.String() + "/api/generate",
		http:        &http.Client{},
		logger:      logger.NewLogger("api client"),
	}, nil
}

// Generate posts the text and returns the expanded result. Failures reported
// by the server come back as *errors.AppError carrying the server's code.
func (c *Client) Generate(ctx context.Context, text, language string) (string, error) {
	requestData, err := json.Marshal(serverClient.GenerateRequest{Text: text, Language: language})
	if err != nil {
		return "", fmt.Errorf("serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateURL, bytes.NewReader(requestData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Failed to send request", zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	var clientResp serverClient.GenerateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&clientResp)

	if resp.StatusCode != http.StatusOK {
		message := clientResp.Result
		if decodeErr != nil || message == "" {
			message = resp.Status
		}
		c.logger.Warn("Generate request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("code", clientResp.Code),
		)
		return "", errors.NewAPIError(message, clientResp.Code, resp.StatusCode)
	}
	if decodeErr != nil {
		c.logger.Error("Failed to decode response", zap.Error(decodeErr))
		return "", errors.NewAPIError("failed to decode response", "", resp.StatusCode).WithCause(decodeErr)
	}

	c.logger.Debug("Generate response received", zap.Int("length", len(clientResp.Result)))
	return clientResp.Result, nil
}
