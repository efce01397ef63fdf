package httpclient

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// New returns a plain *http.Client that retries connection errors and 5xx
// responses up to retryMax times. The last response is handed back as is
// once retries run out.
func New(timeout time.Duration, retryMax int, log *zap.Logger) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if retryMax < 0 {
		retryMax = 0
	}
	if log == nil {
		log = zap.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient = &http.Client{Timeout: timeout}
	rc.Logger = leveledLogger{log: log.Sugar()}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc.StandardClient()
}

type leveledLogger struct {
	log *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.log.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.log.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.log.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.log.Warnw(msg, kv...) }
