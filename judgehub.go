// Package judgehub is a lightweight HTTP framework for building the judgehub
// online-judge grading service. It wraps chi routing, structured logging,
// health checks, and a taxonomy-based error model behind a small, explicit
// API surface.
package judgehub

import (
	"context"
	"io/fs"
	"log/slog"
	"time"

	"github.com/judgehub/judgehub/internal"
	"github.com/judgehub/judgehub/middlewares"
	"github.com/judgehub/judgehub/pkg/logger"
)

// Type aliases - public API
type (
	// App orchestrates the application lifecycle.
	// It manages HTTP routing, middleware, and graceful shutdown.
	App = internal.App

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// CheckFunc is the standard health check function signature.
	CheckFunc = internal.CheckFunc

	// ContextExtractor extracts a slog attribute from context.
	ContextExtractor = logger.ContextExtractor

	// ResponseWriter wraps http.ResponseWriter with status/size tracking.
	ResponseWriter = internal.ResponseWriter

	// HTTPError represents a taxonomy error: {reason, code, message}.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// Extractor pulls a string value from a Context via one or more sources.
	Extractor = internal.Extractor

	// ExtractorSource is a single value-extraction strategy for an Extractor.
	ExtractorSource = internal.ExtractorSource

	// PanicError represents a recovered panic.
	PanicError = middlewares.PanicError

	// TimeoutError represents a request timeout.
	TimeoutError = middlewares.TimeoutError
)

// New creates a new application with the given options.
// The App is immutable after creation.
//
// Example:
//
//	app := judgehub.New(
//	    judgehub.WithHandlers(
//	        api.NewJobsHandler(store, cfg, queue, rank),
//	        api.NewUsersHandler(store),
//	    ),
//	)
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// WithMiddleware adds global middleware to the application.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handlers that declare routes.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithStaticFiles mounts a static file handler at the given pattern.
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithErrorHandler sets a custom error handler for handler errors.
//
// Example:
//
//	judgehub.WithErrorHandler(func(c judgehub.Context, err error) error {
//	    he := judgehub.AsHTTPError(err)
//	    if he == nil {
//	        he = judgehub.ErrInternal("internal error", judgehub.WithError(err))
//	    }
//	    return c.JSON(he.StatusCode(), map[string]any{"reason": he.Reason, "code": he.Code, "message": he.Message})
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFoundHandler sets a custom 404 handler.
func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

// WithMethodNotAllowedHandler sets a custom 405 handler.
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return internal.WithMethodNotAllowedHandler(h)
}

// WithHealthChecks enables health check endpoints with optional configuration.
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLogger creates a logger with a component name and optional extractors.
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithLivenessPath sets a custom liveness endpoint path. Defaults to "/healthz".
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path. Defaults to "/readyz".
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
//
// Example:
//
//	judgehub.WithReadinessCheck("store", store.Healthcheck())
func WithReadinessCheck(name string, fn CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Logger sets the logger used for server lifecycle events.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the maximum time to wait for graceful shutdown.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook registers a function to run before the server starts accepting connections.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a function to run during graceful shutdown.
//
// Example:
//
//	app.Run(addr, judgehub.ShutdownHook(db.Shutdown(conn)))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context for the server's lifecycle.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// ContextValue retrieves a typed value previously stored with Context.Set.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Param retrieves a typed route parameter.
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Param[T](c, name)
}

// Query retrieves a typed query parameter.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault retrieves a typed query parameter with a default value.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	return internal.QueryDefault[T](c, name, defaultValue)
}

// NewExtractor builds an Extractor that tries each source in order.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return internal.NewExtractor(sources...)
}

// FromHeader extracts a value from a request header.
func FromHeader(name string) ExtractorSource {
	return internal.FromHeader(name)
}

// FromQuery extracts a value from a query parameter.
func FromQuery(name string) ExtractorSource {
	return internal.FromQuery(name)
}

// FromParam extracts a value from a route parameter.
func FromParam(name string) ExtractorSource {
	return internal.FromParam(name)
}

// FromBearerToken extracts a bearer token from the Authorization header.
func FromBearerToken() ExtractorSource {
	return internal.FromBearerToken()
}

// Error taxonomy re-exports (§7).
const (
	ReasonInvalidArgument = internal.ReasonInvalidArgument
	ReasonInvalidState    = internal.ReasonInvalidState
	ReasonNotFound        = internal.ReasonNotFound
	ReasonExternal        = internal.ReasonExternal
	ReasonInternal        = internal.ReasonInternal
)

const (
	CodeInvalidArgument = internal.CodeInvalidArgument
	CodeInvalidState    = internal.CodeInvalidState
	CodeNotFound        = internal.CodeNotFound
	CodeExternal        = internal.CodeExternal
	CodeInternal        = internal.CodeInternal
)

// NewHTTPError creates a taxonomy error for the given reason code.
func NewHTTPError(reason string, message string) *HTTPError {
	return internal.NewHTTPError(reason, message)
}

// WithError attaches an underlying cause to an HTTPError, kept for logging only.
func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

// ErrInvalidArgument builds an ERR_INVALID_ARGUMENT error (§7).
func ErrInvalidArgument(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInvalidArgument(message, opts...)
}

// ErrInvalidState builds an ERR_INVALID_STATE error (§7).
func ErrInvalidState(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInvalidState(message, opts...)
}

// ErrNotFound builds an ERR_NOT_FOUND error (§7).
func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

// ErrExternal builds an ERR_EXTERNAL error (§7).
func ErrExternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrExternal(message, opts...)
}

// ErrInternal builds an ERR_INTERNAL error (§7).
func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

// IsHTTPError reports whether err is an *HTTPError.
func IsHTTPError(err error) bool {
	return internal.IsHTTPError(err)
}

// AsHTTPError extracts the HTTPError from an error if present.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// GetRequestID extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func GetRequestID(c Context) string {
	return middlewares.GetRequestID(c)
}

// RequestIDExtractor returns a ContextExtractor for use with WithLogger.
// Automatically adds "request_id" to all log entries.
func RequestIDExtractor() ContextExtractor {
	return middlewares.RequestIDExtractor()
}

// IsPanicError returns true if the error is a PanicError.
func IsPanicError(err error) bool {
	return middlewares.IsPanicError(err)
}

// IsTimeoutError returns true if the error is a TimeoutError.
func IsTimeoutError(err error) bool {
	return middlewares.IsTimeoutError(err)
}

// AsPanicError extracts the PanicError from an error if present.
func AsPanicError(err error) (*PanicError, bool) {
	return middlewares.AsPanicError(err)
}

// AsTimeoutError extracts the TimeoutError from an error if present.
func AsTimeoutError(err error) (*TimeoutError, bool) {
	return middlewares.AsTimeoutError(err)
}
