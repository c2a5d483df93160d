package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/time/rate"

	"github.com/mahesh-hegde/hsrdict/app/common"
	"github.com/mahesh-hegde/hsrdict/app/config"
)

type errorResponse struct {
	Error string `json:"error"`
}

func httpErrorHandler(err error, c echo.Context) {
	code := common.HTTPStatus(err)
	msg := common.PublicMessage(err)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprintf("%v", he.Message)
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorResponse{Error: msg})
	}
	if err != nil {
		slog.Error("failed to write error response", "err", err)
	}
}

// NewEcho builds the HTTP handler with middleware and routes.
func NewEcho(controller *HsrDictController, conf *config.HsrDictConfig, serverConf config.ServerRuntimeConfig) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpErrorHandler

	v, err := newRequestValidator(conf.Search.MaxPageSize)
	if err != nil {
		return nil, err
	}
	e.Validator = v

	if serverConf.CertDir != "" {
		e.Pre(middleware.HTTPSRedirect())
	}
	e.Pre(middleware.RemoveTrailingSlash())
	if serverConf.AcmeEnabled && len(conf.Hostnames) > 0 {
		canonical := conf.Hostnames[0]
		e.Pre(echo.MiddlewareFunc(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				req := c.Request()
				if req.Host != canonical {
					url := *req.URL
					url.Host = canonical
					slog.Info("redirect to canonical hostname", "original_hostname", req.Host)
					return c.Redirect(http.StatusPermanentRedirect, url.String())
				}
				return next(c)
			}
		}))
	}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	var identifierExtractor middleware.Extractor
	if serverConf.BehindLoadBalancer {
		identifierExtractor = func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		}
	} else {
		identifierExtractor = func(ctx echo.Context) (string, error) {
			return ctx.Request().RemoteAddr, nil
		}
	}

	if serverConf.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: middleware.DefaultSkipper,
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(serverConf.RateLimit),
					Burst:     3 * serverConf.RateLimit,
					ExpiresIn: 3 * time.Minute,
				},
			),
			IdentifierExtractor: identifierExtractor,
			ErrorHandler: func(c echo.Context, err error) error {
				return c.JSON(http.StatusForbidden, errorResponse{Error: "Forbidden"})
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "Too Many Requests"})
			},
		}))
	}

	if serverConf.GzipLevel != 0 {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: serverConf.GzipLevel, MinLength: 512}))
	}

	if conf.TimeoutSeconds != 0 {
		e.Use(middleware.ContextTimeout(time.Duration(conf.TimeoutSeconds) * time.Second))
	}

	logger := slog.Default()
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogRemoteIP: true,
		LogLatency:  conf.LogLatency,
		HandleError: true, // forwards error to the global error handler, so it can decide appropriate status code
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				logger.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST",
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Int64("latency_ms", v.Latency.Milliseconds()),
					slog.String("remote_ip", v.RemoteIP),
				)
			} else {
				logger.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR",
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("err", v.Error.Error()),
					slog.String("remote_ip", v.RemoteIP),
					slog.Int64("latency_ms", v.Latency.Milliseconds()),
				)
			}
			return nil
		},
	}))

	e.GET("/:version/translations/:query", controller.SearchTranslations)
	e.GET("/:version/translations", controller.SearchTranslations)

	return e, nil
}

// StartServer serves until the listener fails.
func StartServer(controller *HsrDictController, conf *config.HsrDictConfig, serverConf config.ServerRuntimeConfig) error {
	e, err := NewEcho(controller, conf, serverConf)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", serverConf.Addr, serverConf.Port)
	certDir := serverConf.CertDir

	if certDir != "" {
		if serverConf.AcmeEnabled {
			slog.Info("using TLS with ACME", "dir", certDir)
			e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(conf.Hostnames...)
			e.AutoTLSManager.Cache = autocert.DirCache(certDir)
			return e.StartAutoTLS(addr)
		}
		slog.Info("using TLS with certDir", "dir", certDir)
		return e.StartTLS(addr, path.Join(certDir, "fullchain.pem"), path.Join(certDir, "privkey.pem"))
	}
	slog.Info("starting server", "addr", addr)
	return e.Start(addr)
}
