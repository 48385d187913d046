package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/judgehub/judgehub/internal/config"
	"github.com/judgehub/judgehub/internal/store"
)

// simpleRunner compiles and executes submissions with a plain os/exec call
// and a context timeout. It provides no memory, filesystem, or privilege
// isolation and is selected only when `isolate` is unavailable.
type simpleRunner struct {
	id       int
	workDir  string
	cacheDir string
	log      *slog.Logger
}

func newSimpleRunner(id int, baseDir string, log *slog.Logger) (*simpleRunner, error) {
	workDir := filepath.Join(baseDir, "simple-work", strconv.Itoa(id))
	cacheDir := filepath.Join(baseDir, "simple-cache", strconv.Itoa(id))

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: create work dir: %w", err)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: create cache dir: %w", err)
	}

	return &simpleRunner{id: id, workDir: workDir, cacheDir: cacheDir, log: log}, nil
}

func executableName() string {
	if runtime.GOOS == "windows" {
		return "main.exe"
	}
	return "main"
}

func (r *simpleRunner) Close() error {
	return os.RemoveAll(r.workDir)
}

func (r *simpleRunner) Run(ctx context.Context, job store.Job, problem config.Problem, language config.Language) (store.Job, error) {
	if err := os.RemoveAll(r.workDir); err != nil {
		return job, fmt.Errorf("sandbox: clean work dir: %w", err)
	}
	if err := os.MkdirAll(r.workDir, 0o755); err != nil {
		return job, fmt.Errorf("sandbox: recreate work dir: %w", err)
	}

	cacheDir, compiled, err := r.compile(ctx, &job, language)
	if err != nil {
		return job, err
	}
	if !compiled {
		return job, nil
	}

	r.runCases(ctx, &job, problem, cacheDir)
	return job, nil
}

func (r *simpleRunner) compile(ctx context.Context, job *store.Job, language config.Language) (string, bool, error) {
	sourcePath := filepath.Join(r.workDir, language.FileName)
	if err := os.WriteFile(sourcePath, []byte(job.Submission.SourceCode+"\n"), 0o644); err != nil {
		return "", false, fmt.Errorf("sandbox: write source: %w", err)
	}

	runCacheDir := filepath.Join(r.cacheDir, time.Now().Format("060102-150405"))
	if err := os.MkdirAll(runCacheDir, 0o755); err != nil {
		return "", false, fmt.Errorf("sandbox: create run cache dir: %w", err)
	}

	execName := executableName()
	executablePath := filepath.Join(r.workDir, execName)
	stdoutPath := filepath.Join(r.workDir, "compile_stdout.txt")
	command := applyTemplate(language.Command, sourcePath, executablePath)

	compileCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	outFile, err := os.Create(stdoutPath)
	if err != nil {
		return "", false, fmt.Errorf("sandbox: create compile output: %w", err)
	}

	var runErr error
	if len(command) == 0 {
		runErr = errors.New("empty compile command")
	} else {
		cmd := exec.CommandContext(compileCtx, command[0], command[1:]...)
		cmd.Dir = r.workDir
		cmd.Stdout = outFile
		cmd.Stderr = outFile
		runErr = cmd.Run()
	}
	outFile.Close()

	var result store.JobResult
	switch {
	case errors.Is(compileCtx.Err(), context.DeadlineExceeded):
		result = store.ResultTimeLimitExceeded
	case runErr != nil:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result = store.ResultCompilationError
		} else {
			result = store.ResultSystemError
		}
	}

	stdout, _ := os.ReadFile(stdoutPath)
	job.Cases[0].Info = string(stdout)
	job.Cases[0].Memory = 0

	if result == "" && !fileExists(executablePath) {
		result = store.ResultCompilationError
	}

	if result != "" {
		job.Cases[0].Result = result
		job.Result = result
		job.State = store.StateFinished
		return "", false, nil
	}

	job.Cases[0].Result = store.ResultCompilationSuccess

	cachedExecutable := filepath.Join(runCacheDir, execName)
	if err := os.Rename(executablePath, cachedExecutable); err != nil {
		return "", false, fmt.Errorf("sandbox: stash executable: %w", err)
	}

	return runCacheDir, true, nil
}

func (r *simpleRunner) runCases(ctx context.Context, job *store.Job, problem config.Problem, cacheDir string) {
	executablePath := filepath.Join(cacheDir, executableName())

	var (
		totalScore float64
		firstError store.JobResult
	)

	for i, c := range problem.Cases {
		idx := i + 1

		result, info, timeUS, output := r.runCase(ctx, idx, c, executablePath)
		job.Cases[idx].Time = timeUS
		job.Cases[idx].Memory = 0

		if result != "" {
			job.Cases[idx].Result = result
			job.Cases[idx].Info = info
			if firstError == "" {
				firstError = result
			}
			continue
		}

		expected, err := os.ReadFile(c.AnswerFile)
		if err != nil {
			job.Cases[idx].Result = store.ResultSystemError
			job.Cases[idx].Info = "failed to read answer file"
			if firstError == "" {
				firstError = store.ResultSystemError
			}
			continue
		}

		if judge(problem.Type, output, string(expected)) {
			job.Cases[idx].Result = store.ResultAccepted
			totalScore += c.Score
		} else {
			job.Cases[idx].Result = store.ResultWrongAnswer
			if firstError == "" {
				firstError = store.ResultWrongAnswer
			}
		}
	}

	job.Score = totalScore
	if firstError != "" {
		job.Result = firstError
	} else {
		job.Result = store.ResultAccepted
	}
	job.State = store.StateFinished
}

func (r *simpleRunner) runCase(ctx context.Context, idx int, c config.Case, executablePath string) (result store.JobResult, info string, timeUS uint64, stdout string) {
	input, err := os.ReadFile(c.InputFile)
	if err != nil {
		return store.ResultSystemError, "failed to read input file", 0, ""
	}

	outputPath := filepath.Join(r.workDir, fmt.Sprintf("%d.out", idx))
	outFile, err := os.Create(outputPath)
	if err != nil {
		return store.ResultSystemError, "failed to create output file", 0, ""
	}
	defer outFile.Close()

	timeout := time.Duration(c.TimeLimit) * time.Microsecond
	caseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(caseCtx, executablePath)
	cmd.Dir = r.workDir
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = outFile

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)
	timeUS = uint64(elapsed.Microseconds())

	switch {
	case errors.Is(caseCtx.Err(), context.DeadlineExceeded):
		return store.ResultTimeLimitExceeded, "program execution timeout", timeUS, ""
	case runErr != nil:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return store.ResultRuntimeError, fmt.Sprintf("process exited with code %d", exitErr.ExitCode()), timeUS, ""
		}
		return store.ResultSystemError, runErr.Error(), timeUS, ""
	}

	output, err := os.ReadFile(outputPath)
	if err != nil {
		return store.ResultSystemError, "failed to read output file", timeUS, ""
	}

	return "", "", timeUS, string(output)
}
