package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type openai struct {
	apiKey  string
	baseURL string
	model   string
}

type openaiRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openaiResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func newOpenAI(apiKey, baseURL, model string) *openai {
	return &openai{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
	}
}

func (o *openai) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &ProviderError{Provider: "openai", Err: errors.New("empty input")}
	}

	reqBody := openaiRequest{
		Model: o.model,
		Input: text,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Err: err}
	}

	var oaiResp openaiResponse
	if err := json.Unmarshal(body, &oaiResp); err != nil {
		return nil, &ProviderError{Provider: "openai", Err: err}
	}

	if resp.StatusCode != 200 {
		return nil, &ProviderError{Provider: "openai", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	if oaiResp.Error != nil {
		return nil, &ProviderError{Provider: "openai", Err: errors.New(oaiResp.Error.Message)}
	}

	if len(oaiResp.Data) == 0 {
		return nil, &ProviderError{Provider: "openai", Err: errors.New("no embedding in response")}
	}

	return oaiResp.Data[0].Embedding, nil
}
