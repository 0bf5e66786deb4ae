package rembg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	nhttp "github.com/chaos-io/closet/util/http"
)

const defaultEndpoint = "https://api.remove.bg/v1.0/removebg"

var (
	ErrMissingKey    = errors.New("rembg: api key not configured")
	ErrBadRequest    = errors.New("rembg: bad request")
	ErrQuotaExceeded = errors.New("rembg: quota exceeded")
	ErrAuth          = errors.New("rembg: authentication failed")
	ErrRateLimited   = errors.New("rembg: rate limited")
	ErrServer        = errors.New("rembg: server error")
)

// RemoveBG remove.bg API 客户端
type RemoveBG struct {
	apiKey   string
	endpoint string
	cli      nhttp.IClient
}

type Option func(*RemoveBG)

// WithEndpoint 覆盖默认 API 地址（测试用）
func WithEndpoint(endpoint string) Option {
	return func(r *RemoveBG) { r.endpoint = endpoint }
}

// WithClient 覆盖底层 HTTP 客户端
func WithClient(cli nhttp.IClient) Option {
	return func(r *RemoveBG) { r.cli = cli }
}

func NewRemoveBG(apiKey string, opts ...Option) *RemoveBG {
	r := &RemoveBG{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		cli:      nhttp.NewHTTPClient(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

/*
	curl -X POST "https://api.remove.bg/v1.0/removebg" \
	  -H "X-Api-Key: $REMOVEBG_API_KEY" \
	  -F "image_file=@item.jpg" \
	  -F "size=auto" \
	  -F "format=png"
*/
func (r *RemoveBG) Remove(ctx context.Context, image []byte) ([]byte, error) {
	if r.apiKey == "" {
		return nil, ErrMissingKey
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image_file", "item.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	_ = writer.WriteField("size", "auto")
	_ = writer.WriteField("format", "png")
	_ = writer.Close()

	var out []byte
	reqParam := &nhttp.RequestParam{
		RequestURI:  r.endpoint,
		Method:      http.MethodPost,
		Header:      map[string]string{"Content-Type": writer.FormDataContentType(), "X-Api-Key": r.apiKey},
		Body:        body,
		RawResponse: &out,
	}
	if err := r.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, classify(err)
	}

	return out, nil
}

// classify 把 HTTP 状态映射到错误分类
func classify(err error) error {
	var statusErr *nhttp.StatusError
	if !errors.As(err, &statusErr) {
		return fmt.Errorf("rembg: %w", err)
	}

	switch {
	case statusErr.Code == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, statusErr.Body)
	case statusErr.Code == http.StatusPaymentRequired:
		return ErrQuotaExceeded
	case statusErr.Code == http.StatusForbidden || statusErr.Code == http.StatusUnauthorized:
		return ErrAuth
	case statusErr.Code == http.StatusTooManyRequests:
		return ErrRateLimited
	case statusErr.Code >= 500:
		return fmt.Errorf("%w: status %d", ErrServer, statusErr.Code)
	default:
		return fmt.Errorf("rembg: %w", err)
	}
}
