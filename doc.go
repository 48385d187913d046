// Package judgehub implements an HTTP-accessible online-judge grading
// service: submission intake, a sandboxed judging engine, and contest
// ranklist aggregation, built on a thin, "no magic" web framework.
//
// Judgehub is designed around the principle that the framework generates
// explicit, readable code you own and can modify. It provides a thin
// orchestration layer while keeping business logic in plain Go handlers.
//
// # Quick Start
//
// Create a new application with judgehub.New(), configure it with options,
// and call Run() to start the HTTP server:
//
//	app := judgehub.New(
//	    judgehub.WithHandlers(
//	        api.NewJobsHandler(store, cfg, queue, rank),
//	        api.NewUsersHandler(store),
//	        api.NewContestsHandler(rank),
//	    ),
//	    judgehub.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Recover(),
//	    ),
//	    judgehub.WithHealthChecks(
//	        judgehub.WithReadinessCheck("store", store.Healthcheck()),
//	    ),
//	)
//
//	if err := app.Run(":8080", judgehub.Logger(log)); err != nil {
//	    log.Error("server exited", "error", err)
//	}
//
// # Handlers
//
// Handlers implement the [Handler] interface to declare routes:
//
//	type JobsHandler struct {
//	    store *store.Store
//	    queue *queue.Queue
//	}
//
//	func NewJobsHandler(store *store.Store, queue *queue.Queue) *JobsHandler {
//	    return &JobsHandler{store: store, queue: queue}
//	}
//
//	func (h *JobsHandler) Routes(r judgehub.Router) {
//	    r.POST("/jobs", h.submit)
//	    r.GET("/jobs/{id}", h.get)
//	    r.PUT("/jobs/{id}", h.rejudge)
//	    r.DELETE("/jobs/{id}", h.cancel)
//	}
//
//	func (h *JobsHandler) get(c judgehub.Context) error {
//	    id := judgehub.Param[int](c, "id")
//	    job, err := h.store.GetJob(c, id)
//	    if err != nil {
//	        return c.Error(judgehub.ReasonNotFound, "job not found")
//	    }
//	    return c.JSON(http.StatusOK, job)
//	}
//
// # Middleware
//
// Middleware wraps handlers to add cross-cutting concerns:
//
//	func AccessLog(log *slog.Logger) judgehub.Middleware {
//	    return func(next judgehub.HandlerFunc) judgehub.HandlerFunc {
//	        return func(c judgehub.Context) error {
//	            start := time.Now()
//	            err := next(c)
//	            log.Info("request",
//	                "method", c.Request().Method,
//	                "path", c.Request().URL.Path,
//	                "duration", time.Since(start),
//	            )
//	            return err
//	        }
//	    }
//	}
//
// # Shutdown
//
// The application handles SIGINT/SIGTERM for graceful shutdown.
// Register cleanup functions with ShutdownHook:
//
//	app.Run(":8080",
//	    judgehub.ShutdownHook(db.Shutdown(conn)),
//	    judgehub.ShutdownHook(redis.Shutdown(client)),
//	)
//
// # Testing
//
// For testing, use httptest.NewServer with the app's Router():
//
//	app := judgehub.New(judgehub.WithHandlers(myHandler))
//	ts := httptest.NewServer(app.Router())
//	defer ts.Close()
//
//	resp, err := http.Get(ts.URL + "/jobs/0")
package judgehub
