package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	nhttp "github.com/chaos-io/closet/util/http"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultModel    = "gpt-4o"
)

var (
	ErrMissingKey  = errors.New("vision: api key not configured")
	ErrBadResponse = errors.New("vision: bad response")
)

const classifyPrompt = `You are a wardrobe assistant. Look at the clothing item in the image and respond with a single JSON object:
{"title": "<short item name>", "category": "<one of: shoes, pants, dress, shirt, jacket, accessory>", "subcategory": "<more specific type>", "color": "<dominant color>"}
Respond with JSON only, no extra text.`

// OpenAI 基于 chat completions 的视觉分类客户端
type OpenAI struct {
	apiKey   string
	model    string
	endpoint string
	cli      nhttp.IClient
}

type Option func(*OpenAI)

func WithEndpoint(endpoint string) Option {
	return func(o *OpenAI) { o.endpoint = endpoint }
}

func WithModel(model string) Option {
	return func(o *OpenAI) { o.model = model }
}

func WithClient(cli nhttp.IClient) Option {
	return func(o *OpenAI) { o.cli = cli }
}

func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	o := &OpenAI{
		apiKey:   apiKey,
		model:    defaultModel,
		endpoint: defaultEndpoint,
		cli:      nhttp.NewHTTPClient(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Classify(ctx context.Context, image []byte) (*Attributes, error) {
	if o.apiKey == "" {
		return nil, ErrMissingKey
	}

	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
	requestBody := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": classifyPrompt},
					{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
				},
			},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.1,
	}

	var response chatResponse
	reqParam := &nhttp.RequestParam{
		RequestURI: o.endpoint,
		Method:     http.MethodPost,
		Header: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + o.apiKey,
		},
		Body:     requestBody,
		Response: &response,
	}
	if err := o.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrBadResponse)
	}

	content := stripFence(response.Choices[0].Message.Content)
	var attrs Attributes
	if err := json.Unmarshal([]byte(content), &attrs); err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", ErrBadResponse, content, err)
	}

	attrs.Title = strings.TrimSpace(attrs.Title)
	attrs.Category = strings.ToLower(strings.TrimSpace(attrs.Category))
	attrs.Subcategory = strings.ToLower(strings.TrimSpace(attrs.Subcategory))
	attrs.Color = strings.ToLower(strings.TrimSpace(attrs.Color))
	return &attrs, nil
}

// stripFence 容忍模型把 JSON 包在 markdown 代码块里
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
