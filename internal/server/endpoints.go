package server

import (
	"context"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/a3tai/pdf-unlocker/internal/pdf"
	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
)

// Service is what the transport needs from the PDF layer
type Service interface {
	Unlock(ctx context.Context, req pdf.UnlockRequest) (*pdf.UnlockResult, error)
	ExtractPDFs(ctx context.Context, req pdf.ExtractRequest) (*pdf.ExtractResult, error)
	ServerInfo(serverName, version string) *pdf.ServerInfoResult
}

// Endpoints collects one go-kit endpoint per route
type Endpoints struct {
	Health  endpoint.Endpoint
	Info    endpoint.Endpoint
	Unlock  endpoint.Endpoint
	Extract endpoint.Endpoint
}

type healthResponse struct {
	Status string `json:"status"`
}

type unlockResponse struct {
	result       *pdf.UnlockResult
	returnBase64 bool
}

type extractResponse struct {
	result       *pdf.ExtractResult
	returnBase64 bool
}

// MakeEndpoints wires svc into endpoints, each wrapped with logging
func MakeEndpoints(svc Service, serverName, version string, logger log.Logger) Endpoints {
	wrap := func(name string, e endpoint.Endpoint) endpoint.Endpoint {
		return LoggingMiddleware(log.With(logger, "endpoint", name))(e)
	}
	return Endpoints{
		Health:  makeHealthEndpoint(),
		Info:    wrap("info", makeInfoEndpoint(svc, serverName, version)),
		Unlock:  wrap("unlock", makeUnlockEndpoint(svc)),
		Extract: wrap("extract", makeExtractEndpoint(svc)),
	}
}

func makeHealthEndpoint() endpoint.Endpoint {
	return func(context.Context, interface{}) (interface{}, error) {
		return healthResponse{Status: "ok"}, nil
	}
}

func makeInfoEndpoint(svc Service, serverName, version string) endpoint.Endpoint {
	return func(context.Context, interface{}) (interface{}, error) {
		return svc.ServerInfo(serverName, version), nil
	}
}

func makeUnlockEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(pdf.UnlockRequest)
		result, err := svc.Unlock(ctx, req)
		if err != nil {
			return nil, err
		}
		return unlockResponse{result: result, returnBase64: req.ReturnBase64}, nil
	}
}

func makeExtractEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(pdf.ExtractRequest)
		result, err := svc.ExtractPDFs(ctx, req)
		if err != nil {
			return nil, err
		}
		return extractResponse{result: result, returnBase64: req.ReturnBase64}, nil
	}
}

// LoggingMiddleware logs the outcome and duration of every call. Client
// errors are logged at debug, everything else that fails at error.
func LoggingMiddleware(logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				kv := []interface{}{"request_id", RequestIDFrom(ctx), "took", time.Since(begin)}
				switch {
				case err == nil:
					level.Debug(logger).Log(append(kv, "msg", "ok")...)
				case pdferrors.KindOf(err).IsClientError():
					level.Debug(logger).Log(append(kv, "msg", "rejected", "err", err)...)
				default:
					level.Error(logger).Log(append(kv, "msg", "failed", "err", err)...)
				}
			}(time.Now())
			return next(ctx, request)
		}
	}
}
