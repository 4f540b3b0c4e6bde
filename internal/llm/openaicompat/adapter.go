// Package openaicompat implements the chat-completions wire protocol shared by
// every upstream this gateway talks to. DeepSeek, Moonshot, Qwen's
// compatible-mode and Spark X1 all speak OpenAI-shaped JSON over HTTPS with
// bearer auth; only base URLs and default models differ, so the concrete
// provider packages wrap this adapter with their own defaults.
package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/no-bike/software-aibot/internal/config"
	"github.com/no-bike/software-aibot/internal/httpclient"
	"github.com/no-bike/software-aibot/pkg/api"
)

type Adapter struct {
	config       config.ProviderConfig
	providerType string
	client       *http.Client
}

// New builds an adapter for an OpenAI-compatible upstream. baseURL must
// already be resolved (the wrapping provider package supplies its default).
func New(cfg config.ProviderConfig, providerType string) *Adapter {
	return &Adapter{
		config:       cfg,
		providerType: providerType,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *Adapter) Name() string {
	return a.config.ID
}

func (a *Adapter) Type() string {
	return a.providerType
}

// upstreamErrorResponse mirrors the standard OpenAI error shape
type upstreamErrorResponse struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

func (a *Adapter) handleUpstreamError(err error) error {
	var upstreamErr *httpclient.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return err
	}

	var apiErr upstreamErrorResponse
	if jsonErr := json.Unmarshal(upstreamErr.Body, &apiErr); jsonErr != nil {
		return api.NewError(
			upstreamErr.StatusCode,
			"Upstream Error",
			string(upstreamErr.Body),
			api.WithLog(err),
		)
	}

	return api.NewError(
		upstreamErr.StatusCode,
		"Upstream Provider Error",
		apiErr.Error.Message,
		api.WithExtension("upstream_code", apiErr.Error.Code),
		api.WithExtension("upstream_type", apiErr.Error.Type),
		api.WithLog(err),
	)
}

func (a *Adapter) headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	}
	for k, v := range a.config.Config {
		if strings.HasPrefix(k, "header:") {
			h[strings.TrimPrefix(k, "header:")] = v
		}
	}
	return h
}

func (a *Adapter) endpoint() string {
	return fmt.Sprintf("%s/chat/completions", strings.TrimRight(a.config.BaseURL, "/"))
}

func (a *Adapter) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	var resp api.ChatResponse

	// ensure stream is false for this method
	reqClone := *req
	reqClone.Stream = false
	reqClone.ConversationID = ""

	if err := httpclient.SendRequest(ctx, a.client, "POST", a.endpoint(), a.headers(), &reqClone, &resp); err != nil {
		return nil, a.handleUpstreamError(err)
	}

	return &resp, nil
}

func (a *Adapter) Stream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error) {
	ch := make(chan api.StreamResult)

	reqClone := *req
	reqClone.Stream = true
	reqClone.ConversationID = ""

	go func() {
		defer close(ch)

		err := httpclient.StreamRequest(ctx, a.client, "POST", a.endpoint(), a.headers(), &reqClone, func(line string) error {
			// SSE format: data: {...}
			if !strings.HasPrefix(line, "data: ") {
				return nil
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				return nil
			}

			var chatResp api.ChatResponse
			if err := json.Unmarshal([]byte(data), &chatResp); err != nil {
				// skip malformed chunks, upstreams occasionally emit keep-alives
				return nil
			}

			select {
			case ch <- api.StreamResult{Response: &chatResp}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})

		if err != nil {
			ch <- api.StreamResult{Err: a.handleUpstreamError(err)}
		}
	}()

	return ch, nil
}

func (a *Adapter) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/models", strings.TrimRight(a.config.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}

	return nil
}
