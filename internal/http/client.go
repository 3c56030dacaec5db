package custhttp

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/motemen/go-loghttp"
	fastshot "github.com/opus-domini/fast-shot"
	"github.com/vacs-platform/streamview/internal/logger"
	"go.uber.org/zap"
)

// NewLoggingTransport wraps the default transport so every outbound REST call
// is visible at debug level.
func NewLoggingTransport() http.RoundTripper {
	return &loghttp.Transport{
		LogRequest: func(req *http.Request) {
			logger.SDebug("http client request",
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()))
		},
		LogResponse: func(resp *http.Response) {
			logger.SDebug("http client response",
				zap.Int("status", resp.StatusCode),
				zap.String("url", resp.Request.URL.String()))
		},
	}
}

func JSONResponse(resp *fastshot.Response, dest interface{}) error {
	body := resp.RawBody()
	defer body.Close()

	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		logger.SDebug("failed to read HTTP response body", zap.Error(err))
		return err
	}

	if err := sonic.Unmarshal(bodyBytes, dest); err != nil {
		logger.SDebug("failed to unmarshal JSON response", zap.Error(err))
		return err
	}

	return nil
}
