package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/judgehub/judgehub/internal/config"
	"github.com/judgehub/judgehub/internal/store"
)

// toolchainDir is where problem language toolchains (compilers,
// interpreters) are installed, exposed read-only inside every sandbox.
const toolchainDir = "/opt/judgehub"

// isolatedRunner judges submissions inside an `isolate`(1) sandbox,
// enforcing per-stage CPU, wall-clock, memory, process, and file-descriptor
// limits.
type isolatedRunner struct {
	id       int
	boxDir   string
	cacheDir string
	log      *slog.Logger
}

func newIsolatedRunner(id int, baseDir string, log *slog.Logger) (*isolatedRunner, error) {
	cacheDir := filepath.Join(baseDir, "isolate-cache", strconv.Itoa(id))
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		return nil, fmt.Errorf("sandbox: create cache dir: %w", err)
	}

	boxDir, err := isolateInit(id)
	if err != nil {
		return nil, fmt.Errorf("sandbox: init isolate box %d: %w", id, err)
	}

	log.Info("isolated sandbox runner ready", "runner_id", id, "box_dir", boxDir)
	return &isolatedRunner{id: id, boxDir: boxDir, cacheDir: cacheDir, log: log}, nil
}

func isolateInit(id int) (string, error) {
	out, err := exec.Command("isolate", "-b", strconv.Itoa(id), "--cg", "--init").Output()
	if err != nil {
		return "", fmt.Errorf("isolate --init: %w", err)
	}

	root := strings.TrimSpace(string(out))
	if root == "" {
		return "", errors.New("isolate --init produced empty output")
	}
	return filepath.Join(root, "box"), nil
}

func (r *isolatedRunner) reinit() error {
	_, err := isolateInit(r.id)
	return err
}

// Close releases the sandbox identity.
func (r *isolatedRunner) Close() error {
	if err := exec.Command("isolate", "-b", strconv.Itoa(r.id), "--cg", "--cleanup").Run(); err != nil {
		return fmt.Errorf("sandbox: cleanup box %d: %w", r.id, err)
	}
	return nil
}

func (r *isolatedRunner) Run(_ context.Context, job store.Job, problem config.Problem, language config.Language) (store.Job, error) {
	if err := r.reinit(); err != nil {
		return job, fmt.Errorf("sandbox: reinit before compile: %w", err)
	}

	cacheDir, compiled, err := r.compile(&job, language)
	if err != nil {
		return job, err
	}
	if !compiled {
		return job, nil
	}

	r.runCases(&job, problem, cacheDir)
	return job, nil
}

func (r *isolatedRunner) compile(job *store.Job, language config.Language) (string, bool, error) {
	sourcePath := filepath.Join(r.boxDir, language.FileName)
	if err := os.WriteFile(sourcePath, []byte(job.Submission.SourceCode+"\n"), 0o644); err != nil {
		return "", false, fmt.Errorf("sandbox: write source: %w", err)
	}

	runCacheDir := filepath.Join(r.cacheDir, time.Now().Format("060102-150405"))
	if err := os.MkdirAll(runCacheDir, 0o700); err != nil {
		return "", false, fmt.Errorf("sandbox: create run cache dir: %w", err)
	}

	const executableName = "main"
	executablePath := filepath.Join(r.boxDir, executableName)
	stdoutPath := filepath.Join(r.boxDir, "compile_stdout.txt")
	metaPath := filepath.Join(runCacheDir, "compile.meta")

	command := applyTemplate(language.Command, language.FileName, executableName)

	args := []string{"--dir=" + toolchainDir}
	if _, err := os.Stat("/etc/alternatives"); err == nil {
		args = append(args, "--dir=/etc/alternatives")
	}
	args = append(args,
		"-b", strconv.Itoa(r.id),
		"--cg", "--run",
		fmt.Sprintf("--processes=%d", compileProcesses),
		fmt.Sprintf("--open-files=%d", compileOpenFiles),
		fmt.Sprintf("--fsize=%d", compileFileSizeKB),
		"--wall-time=30",
		fmt.Sprintf("--cg-mem=%d", 256*1024),
		"-E", "PATH="+toolchainDir+"/bin:/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
		"-M", metaPath,
		"--silent", "--stderr-to-stdout",
		"-o", "compile_stdout.txt",
		"--",
		"/bin/sh", "-c", strings.Join(command, " "),
	)

	if err := runIgnoringExitError(exec.Command("isolate", args...)); err != nil {
		return "", false, fmt.Errorf("sandbox: run compile command: %w", err)
	}

	stdout, _ := os.ReadFile(stdoutPath)
	job.Cases[0].Info = string(stdout)

	metaContent, err := os.ReadFile(metaPath)
	if err != nil {
		return "", false, fmt.Errorf("sandbox: read compile meta: %w", err)
	}
	meta := parseIsolateMeta(string(metaContent))
	job.Cases[0].Time = meta.timeMicros()
	job.Cases[0].Memory = meta.memoryKB

	if meta.statusPresent || !fileExists(executablePath) {
		job.Cases[0].Result = store.ResultCompilationError
		job.Result = store.ResultCompilationError
		job.State = store.StateFinished
		return runCacheDir, false, nil
	}

	job.Cases[0].Result = store.ResultCompilationSuccess

	cachedExecutable := filepath.Join(runCacheDir, executableName)
	if err := os.Rename(executablePath, cachedExecutable); err != nil {
		return "", false, fmt.Errorf("sandbox: stash executable: %w", err)
	}
	if err := r.reinit(); err != nil {
		return "", false, fmt.Errorf("sandbox: reinit after compile: %w", err)
	}
	if err := os.Rename(cachedExecutable, executablePath); err != nil {
		return "", false, fmt.Errorf("sandbox: restore executable: %w", err)
	}

	return runCacheDir, true, nil
}

func (r *isolatedRunner) runCases(job *store.Job, problem config.Problem, cacheDir string) {
	var (
		totalScore float64
		firstError store.JobResult
	)

	for i, c := range problem.Cases {
		idx := i + 1

		if err := copyFile(c.InputFile, filepath.Join(r.boxDir, fmt.Sprintf("%d.in", idx))); err != nil {
			job.Cases[idx].Result = store.ResultSystemError
			job.Cases[idx].Info = err.Error()
			if firstError == "" {
				firstError = store.ResultSystemError
			}
			continue
		}

		result, info, timeUS, memKB := r.runCase(idx, c, cacheDir)
		job.Cases[idx].Time = timeUS
		job.Cases[idx].Memory = memKB

		if result != "" {
			job.Cases[idx].Result = result
			job.Cases[idx].Info = info
			if firstError == "" {
				firstError = result
			}
			continue
		}

		output, err := os.ReadFile(filepath.Join(r.boxDir, fmt.Sprintf("%d.out", idx)))
		if err != nil {
			job.Cases[idx].Result = store.ResultSystemError
			job.Cases[idx].Info = "failed to read output file"
			if firstError == "" {
				firstError = store.ResultSystemError
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

		if judge(problem.Type, string(output), string(expected)) {
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

// runCase executes ./main inside the box for one case and returns a
// non-empty result on error, plus elapsed time and memory.
func (r *isolatedRunner) runCase(idx int, c config.Case, cacheDir string) (result store.JobResult, info string, timeUS, memKB uint64) {
	stdinName := fmt.Sprintf("%d.in", idx)
	stdoutName := fmt.Sprintf("%d.out", idx)
	metaPath := filepath.Join(cacheDir, fmt.Sprintf("%d.meta", idx))

	wallTime := float64(c.TimeLimit)/1_000_000 + isolateGraceSeconds

	args := []string{
		"-b", strconv.Itoa(r.id),
		"--cg", "--run",
		"-w", fmt.Sprintf("%.4f", wallTime),
		fmt.Sprintf("--cg-mem=%d", c.MemoryLimit),
		fmt.Sprintf("--stack=%d", c.MemoryLimit/2),
		fmt.Sprintf("--processes=%d", runtimeProcesses),
		fmt.Sprintf("--open-files=%d", runtimeOpenFiles),
		fmt.Sprintf("--fsize=%d", runtimeFileSizeKB),
		"-E", "PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
		"-M", metaPath,
		"-i", stdinName,
		"-o", stdoutName,
		"--stderr-to-stdout", "--silent",
		"--", "./main",
	}

	start := time.Now()
	runErr := runIgnoringExitError(exec.Command("isolate", args...))
	elapsed := time.Since(start)

	metaContent, err := os.ReadFile(metaPath)
	if err != nil {
		return store.ResultSystemError, "failed to read meta file", 0, 0
	}
	meta := parseIsolateMeta(string(metaContent))
	timeUS = meta.timeMicros()
	memKB = meta.memoryKB

	if res, isErr := meta.outcome(); isErr {
		result, info = res, meta.message
	} else if runErr != nil {
		result, info = store.ResultSystemError, runErr.Error()
	}

	if uint64(elapsed.Microseconds()) > c.TimeLimit && result == "" {
		timeUS = uint64(elapsed.Microseconds())
		result = store.ResultTimeLimitExceeded
	}

	return result, info, timeUS, memKB
}

func runIgnoringExitError(cmd *exec.Cmd) error {
	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return err
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
