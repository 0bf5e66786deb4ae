package http

import (
	"context"
	"fmt"
	"time"
)

//go:generate mockgen -destination=mocks/http.go -package=mocks . IClient
type IClient interface {
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
}

type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	// Body 支持 io.Reader、[]byte，或任意可 JSON 序列化的值
	Body interface{}
	// Response 非空时把响应体按 JSON 反序列化进去
	Response interface{}
	// RawResponse 非空时保留原始响应字节（例如图片），优先于 Response
	RawResponse *[]byte

	Timeout time.Duration
}

// StatusError 非 2xx 响应
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP request failed with status %d: %s", e.Code, string(e.Body))
}
