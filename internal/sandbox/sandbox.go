// Package sandbox compiles and executes submitted source code against a
// problem's test cases, under one of two pluggable back-ends: a fully
// isolated back-end built on the `isolate`(1) sandboxing tool, and a plain
// `os/exec` back-end used when `isolate` isn't available on the host.
package sandbox

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/judgehub/judgehub/internal/config"
	"github.com/judgehub/judgehub/internal/store"
)

// Resource limits the Isolated back-end passes to isolate, lifted from the
// original judge's isolate invocation. The Simple back-end applies none of
// them; it enforces only wall-clock timeouts.
const (
	compileProcesses  = 10
	compileOpenFiles  = 512
	compileFileSizeKB = 65536 // 64 MiB

	runtimeProcesses  = 4
	runtimeOpenFiles  = 30
	runtimeFileSizeKB = 16384 // 16 MiB

	// isolateGraceSeconds is added to a case's configured wall-time limit
	// before it is passed to isolate, to absorb isolate's own startup
	// overhead. The Go-side wall timer below still enforces the
	// unmodified limit.
	isolateGraceSeconds = 0.5
)

// Runner compiles and judges one job end to end. Implementations own
// exactly one sandbox identity and are never shared across goroutines.
type Runner interface {
	// Run compiles job.Submission.SourceCode and, if compilation
	// succeeds, executes it against every case in problem. It returns a
	// job with State == Finished, a terminal Result, and every case
	// populated with a terminal result.
	Run(ctx context.Context, job store.Job, problem config.Problem, language config.Language) (store.Job, error)

	// Close releases the runner's sandbox resources.
	Close() error
}

// New picks a back-end for runner id: the Isolated back-end if the
// `isolate` binary is on PATH, the Simple back-end (with a logged security
// warning) otherwise.
func New(id int, baseDir string, log *slog.Logger) (Runner, error) {
	if log == nil {
		log = slog.Default()
	}

	if _, err := exec.LookPath("isolate"); err == nil {
		log.Info("sandbox runner using isolate backend", "runner_id", id)
		return newIsolatedRunner(id, baseDir, log)
	}

	log.Warn("isolate binary not found on PATH, falling back to unsandboxed execution; "+
		"submitted code runs with no resource or filesystem isolation", "runner_id", id)
	return newSimpleRunner(id, baseDir, log)
}

// applyTemplate substitutes %INPUT% and %OUTPUT% into every token of cmd
// and returns the substituted tokens as a new slice, matching the original
// command-template semantics. It does not join them.
func applyTemplate(cmd []string, input, output string) []string {
	out := make([]string, len(cmd))
	replacer := strings.NewReplacer("%INPUT%", input, "%OUTPUT%", output)
	for i, tok := range cmd {
		out[i] = replacer.Replace(tok)
	}
	return out
}
