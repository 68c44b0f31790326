package gateway

import (
	"time"

	"github.com/valyala/fasthttp"
)

// HTTPDoer is the slice of *fasthttp.Client the gateway needs.
type HTTPDoer interface {
	Do(req *fasthttp.Request, resp *fasthttp.Response) error
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Metrics receives gateway observations.
type Metrics interface {
	ObserveGatewayRequest(path, outcome string, duration time.Duration)
	ObserveCallbackVerification(accepted bool)
}

// NoopMetrics is a no-op implementation of Metrics
type NoopMetrics struct{}

func (NoopMetrics) ObserveGatewayRequest(string, string, time.Duration) {}
func (NoopMetrics) ObserveCallbackVerification(bool)                    {}
