package imagegen

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shouni/go-http-kit/httpkit"
)

// ErrMissingEndpoint は接続先・モデル・API キーのいずれかが未設定の場合に返されます。
var ErrMissingEndpoint = errors.New("画像生成の接続設定（base URL / model / API key）が不足しています")

// ErrorKind は失敗の分類です。
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindAuth
	ErrorKindPayment
	ErrorKindPermission
	ErrorKindRateLimit
	ErrorKindServer
	ErrorKindHTTP
	ErrorKindNetwork
	ErrorKindDecode
	ErrorKindRequest
	ErrorKindAborted
)

var errorKindNames = map[ErrorKind]string{
	ErrorKindNone:       "none",
	ErrorKindAuth:       "auth",
	ErrorKindPayment:    "payment",
	ErrorKindPermission: "permission",
	ErrorKindRateLimit:  "rate_limit",
	ErrorKindServer:     "server",
	ErrorKindHTTP:       "http",
	ErrorKindNetwork:    "network",
	ErrorKindDecode:     "decode",
	ErrorKindRequest:    "request",
	ErrorKindAborted:    "aborted",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// HTTPError は 2xx 以外の応答を表します。
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// newHTTPError は httpkit.HandleResponse のエラーから HTTPError を組み立てます。
// 4xx は httpkit.NonRetryableHTTPError の本文を、それ以外はエラーメッセージを本文として保持します。
func newHTTPError(status int, err error) *HTTPError {
	var nonRetryable *httpkit.NonRetryableHTTPError
	if errors.As(err, &nonRetryable) {
		return &HTTPError{StatusCode: nonRetryable.StatusCode, Body: truncate(string(nonRetryable.Body), maxErrorBodyLen)}
	}
	return &HTTPError{StatusCode: status, Body: truncate(err.Error(), maxErrorBodyLen)}
}

// classifyStatus はステータスコードを分類とユーザー向けメッセージに変換します。
func classifyStatus(status int) (ErrorKind, string) {
	switch {
	case status == http.StatusUnauthorized:
		return ErrorKindAuth, "API キーが無効、または設定されていません"
	case status == http.StatusPaymentRequired:
		return ErrorKindPayment, "残高不足、または有料モデルの利用権がありません"
	case status == http.StatusForbidden:
		return ErrorKindPermission, "このモデルを利用する権限がありません"
	case status == http.StatusTooManyRequests:
		return ErrorKindRateLimit, "リクエストが多すぎます。しばらくしてから再試行してください"
	case status >= 500:
		return ErrorKindServer, "サーバーエラーです。しばらくしてから再試行してください"
	default:
		return ErrorKindHTTP, fmt.Sprintf("HTTP %d で失敗しました", status)
	}
}
