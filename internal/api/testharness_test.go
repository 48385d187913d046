package api_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/judgehub/judgehub"
	"github.com/judgehub/judgehub/internal/api"
	"github.com/judgehub/judgehub/internal/config"
	"github.com/judgehub/judgehub/internal/queue"
	"github.com/judgehub/judgehub/internal/ranklist"
	"github.com/judgehub/judgehub/internal/store"
	"github.com/judgehub/judgehub/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// echoConfig is a single problem ("echo", id 1) with one standard-judged
// case, plus a "shell" language whose compiler just copies the source file
// to the output and marks it executable. It requires no real compiler.
func echoConfig(blocking bool) *config.Config {
	return &config.Config{
		Server: config.Server{Blocking: blocking},
		Problems: []config.Problem{
			{
				ID:   1,
				Name: "echo",
				Type: config.JudgeStandard,
				Cases: []config.Case{
					{Score: 100, InputFile: "/dev/null", AnswerFile: "/dev/null", TimeLimit: 2_000_000, MemoryLimit: 65536},
				},
			},
		},
		Languages: []config.Language{
			{
				Name:     "shell",
				FileName: "main.sh",
				Command:  []string{"/bin/sh", "-c", "cp %INPUT% %OUTPUT% && chmod +x %OUTPUT%"},
			},
		},
	}
}

// harness wires a real store, queue, worker pool, and ranklist aggregator
// behind the full HTTP handler set, the same way cmd/judgehub does.
type harness struct {
	store *store.Store
	queue *queue.Queue
	cfg   *config.Config
	app   *judgehub.App
	srv   *httptest.Server
	stop  context.CancelFunc
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	return newHarnessImpl(t, cfg, true)
}

// newHarnessNoWorker builds a harness with no worker pool consuming the
// queue, so a submitted job stays Queueing until something pops it — used
// to test cancellation of a job that hasn't started running yet.
func newHarnessNoWorker(t *testing.T, cfg *config.Config) *harness {
	return newHarnessImpl(t, cfg, false)
}

func newHarnessImpl(t *testing.T, cfg *config.Config, runWorker bool) *harness {
	t.Helper()

	st, err := store.Open(context.Background(), t.TempDir()+"/judgehub.db", store.WithLogger(testLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	q := queue.New()
	rank := ranklist.NewAggregator(st, cfg, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if runWorker {
		pool := worker.NewPool(1, cfg, st, q, rank, t.TempDir(), testLogger())
		go func() { _ = pool.Run(ctx) }()
	}

	app := judgehub.New(
		judgehub.WithHandlers(
			api.NewJobsHandler(st, cfg, q, rank),
			api.NewUsersHandler(st),
			api.NewContestsHandler(rank),
		),
		judgehub.WithErrorHandler(api.ErrorHandler),
	)

	srv := httptest.NewServer(app.Router())
	t.Cleanup(srv.Close)

	return &harness{store: st, queue: q, cfg: cfg, app: app, srv: srv, stop: cancel}
}
