// Package middlewares provides HTTP middleware for judgehub applications.
//
// This package includes four essential middlewares:
//
// # Request ID
//
// RequestID middleware assigns a unique ID to each request for tracing and debugging.
// It checks incoming headers for existing IDs or generates new ones using ULID.
//
//	app := judgehub.New(
//	    judgehub.WithMiddleware(
//	        middlewares.RequestID(),
//	    ),
//	)
//
// Use RequestIDExtractor() with WithLogger for automatic request_id in all logs:
//
//	app := judgehub.New(
//	    judgehub.WithLogger("api", judgehub.RequestIDExtractor()),
//	    judgehub.WithMiddleware(
//	        middlewares.RequestID(),
//	    ),
//	)
//
// # Recover
//
// Recover middleware catches panics and converts them to typed errors.
// The PanicError can be handled by the global ErrorHandler.
//
//	app := judgehub.New(
//	    judgehub.WithMiddleware(
//	        middlewares.Recover(),
//	    ),
//	    judgehub.WithErrorHandler(func(c judgehub.Context, err error) error {
//	        if judgehub.IsPanicError(err) {
//	            pe, _ := judgehub.AsPanicError(err)
//	            c.LogError("panic", "value", pe.Value, "stack", string(pe.Stack))
//	            he := judgehub.ErrInternal("internal error")
//	            return c.JSON(he.StatusCode(), he)
//	        }
//	        he := judgehub.ErrInternal(err.Error())
//	        return c.JSON(he.StatusCode(), he)
//	    }),
//	)
//
// # Timeout
//
// Timeout middleware enforces request timeouts and returns typed TimeoutError.
// Note: The handler goroutine continues after timeout; use context.Done() for early termination.
//
//	app := judgehub.New(
//	    judgehub.WithMiddleware(
//	        middlewares.Timeout(5*time.Second),
//	    ),
//	    judgehub.WithErrorHandler(func(c judgehub.Context, err error) error {
//	        if judgehub.IsTimeoutError(err) {
//	            he := judgehub.ErrExternal("gateway timeout")
//	            return c.JSON(he.StatusCode(), he)
//	        }
//	        he := judgehub.ErrInternal(err.Error())
//	        return c.JSON(he.StatusCode(), he)
//	    }),
//	)
//
// # CORS
//
// CORS middleware handles Cross-Origin Resource Sharing headers.
// It processes preflight (OPTIONS) requests and adds CORS headers to all responses.
//
//	app := judgehub.New(
//	    judgehub.WithMiddleware(
//	        middlewares.CORS(),  // Allow all origins (default)
//	    ),
//	)
//
// Configure specific origins and credentials:
//
//	app := judgehub.New(
//	    judgehub.WithMiddleware(
//	        middlewares.CORS(
//	            middlewares.WithAllowOrigins("https://judge.example.com"),
//	            middlewares.WithAllowCredentials(),
//	        ),
//	    ),
//	)
//
// Use dynamic origin validation:
//
//	app := judgehub.New(
//	    judgehub.WithMiddleware(
//	        middlewares.CORS(
//	            middlewares.WithAllowOriginFunc(func(origin string) bool {
//	                return strings.HasSuffix(origin, ".example.com")
//	            }),
//	        ),
//	    ),
//	)
//
// # Recommended Middleware Order
//
// Apply middlewares in this order for best results:
//
//	judgehub.WithMiddleware(
//	    middlewares.CORS(),       // First: handle preflight before other processing
//	    middlewares.RequestID(),  // Second: assign ID for all subsequent logging
//	    middlewares.Recover(),    // Third: catch panics from timeout and handlers
//	    middlewares.Timeout(5*time.Second), // Fourth: enforce timeout
//	)
//
// # Complete Example
//
//	import (
//	    "github.com/judgehub/judgehub"
//	    "github.com/judgehub/judgehub/middlewares"
//	)
//
//	app := judgehub.New(
//	    judgehub.WithLogger("api", judgehub.RequestIDExtractor()),
//	    judgehub.WithMiddleware(
//	        middlewares.CORS(),
//	        middlewares.RequestID(),
//	        middlewares.Recover(),
//	        middlewares.Timeout(5*time.Second),
//	    ),
//	    judgehub.WithErrorHandler(func(c judgehub.Context, err error) error {
//	        he := judgehub.AsHTTPError(err)
//	        if he == nil {
//	            he = judgehub.ErrInternal(err.Error(), judgehub.WithError(err))
//	        }
//	        return c.JSON(he.StatusCode(), he)
//	    }),
//	)
package middlewares
