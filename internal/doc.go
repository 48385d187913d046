// Package internal provides the core types and implementation for the judgehub
// web framework.
//
// This package is internal and should not be used directly. Import
// "github.com/judgehub/judgehub" instead, which re-exports the public API.
//
// # Core Types
//
//   - App: Orchestrates the application lifecycle, HTTP routing, and graceful shutdown
//   - Context: Provides request/response access and helper methods during handler execution
//   - Router: Interface handlers use to declare routes with HTTP methods and grouping
//   - Handler: Interface implemented by types that declare routes on a router
//   - HandlerFunc: Signature for individual route handlers that return errors
//   - Middleware: Wraps handlers to add cross-cutting concerns like logging or recovery
//   - ErrorHandler: Custom error handling function for handler errors
//
// # Application Structure
//
// Create an application with New() and configure it using options:
//
//	app := internal.New(
//	    internal.WithHandlers(jobsHandler, usersHandler, ranklistHandler),
//	    internal.WithMiddleware(middlewares.Recover(), middlewares.RequestID()),
//	    internal.WithHealthChecks(internal.WithReadinessCheck("store", store.Healthcheck())),
//	)
//
// # Handler Pattern
//
// Handlers implement the Handler interface and declare routes:
//
//	type JobsHandler struct {
//	    store *store.Store
//	    queue *queue.Queue
//	}
//
//	func (h *JobsHandler) Routes(r internal.Router) {
//	    r.POST("/jobs", h.submit)
//	    r.GET("/jobs/{id}", h.get)
//	}
//
// Handlers receive dependencies via constructor injection, not context helpers.
//
// # Request Handling
//
//	func (h *JobsHandler) get(c internal.Context) error {
//	    id := internal.Param[int](c, "id")
//	    job, err := h.store.GetJob(c, id)
//	    if err != nil {
//	        return c.Error(internal.ReasonNotFound, "job not found")
//	    }
//	    return c.JSON(http.StatusOK, job)
//	}
//
// # Error Handling
//
// Errors returned from handlers trigger the ErrorHandler:
//
//	func errorHandler(c internal.Context, err error) error {
//	    he := internal.AsHTTPError(err)
//	    if he == nil {
//	        he = internal.ErrInternal(err.Error(), internal.WithError(err))
//	    }
//	    return c.JSON(he.StatusCode(), map[string]any{"reason": he.Reason, "code": he.Code, "message": he.Message})
//	}
//
// # Server Runtime
//
//	err := app.Run(":8080", internal.Logger(log), internal.ShutdownHook(db.Shutdown(conn)))
//
// # Design Principles
//
//   - No magic: explicit code, no reflection, no service containers
//   - Flat handlers: business logic in handlers, extract to services only when shared
//   - Constructor injection: all dependencies visible in main
package internal
