package middleware

import (
	"context"
	"errors"
	"time"

	"gomarketplace_vendor/metrics"
	"gomarketplace_vendor/pkg/logger"
)

// DoFunc is the shape of BaseClient.doRequest: requestBody is marshalled or streamed
// by the client, response is decoded into.
type DoFunc func(ctx context.Context, method, endpoint string, requestBody, response interface{}) error

type Middleware func(next DoFunc) DoFunc

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(do DoFunc, mws ...Middleware) DoFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		do = mws[i](do)
	}
	return do
}

type routeKey struct{}

// WithRoute tags the request with a low-cardinality route name used as the metrics label
// instead of the raw endpoint, which may carry transaction ids.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFrom(ctx context.Context, endpoint string) string {
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return endpoint
}

// statusCoder is implemented by client errors that carry the HTTP status of the response.
type statusCoder interface {
	HTTPStatus() int
}

func statusOf(err error) int {
	if err == nil {
		return 200
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

// Metrics records every outbound call in the prometheus request series.
func Metrics() Middleware {
	return func(next DoFunc) DoFunc {
		return func(ctx context.Context, method, endpoint string, requestBody, response interface{}) error {
			start := time.Now()
			err := next(ctx, method, endpoint, requestBody, response)
			metrics.RecordRequest(metrics.Outbound, method, routeFrom(ctx, endpoint), statusOf(err), time.Since(start))
			return err
		}
	}
}

// Logging writes one line per call; failures go out at error level.
func Logging(log logger.Logger) Middleware {
	return func(next DoFunc) DoFunc {
		return func(ctx context.Context, method, endpoint string, requestBody, response interface{}) error {
			start := time.Now()
			err := next(ctx, method, endpoint, requestBody, response)
			if err != nil {
				log.Error("%s %s failed after %s: %s", method, endpoint, time.Since(start).Round(time.Millisecond), err)
				return err
			}
			log.Log("%s %s ok in %s", method, endpoint, time.Since(start).Round(time.Millisecond))
			return nil
		}
	}
}
