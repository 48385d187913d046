package sandbox

import (
	"strconv"
	"strings"

	"github.com/judgehub/judgehub/internal/store"
)

// isolateMeta is the parsed content of an isolate `-M` meta file.
type isolateMeta struct {
	killed        bool
	oomKilled     bool
	exitCode      int
	hasExitCode   bool
	statusPresent bool
	memoryKB      uint64
	timeWall      float64 // seconds
	message       string
}

func parseIsolateMeta(content string) isolateMeta {
	var m isolateMeta

	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		switch key {
		case "killed":
			m.killed = value == "1"
		case "cg-oom-killed":
			m.oomKilled = value == "1"
		case "exitcode":
			if n, err := strconv.Atoi(value); err == nil {
				m.exitCode = n
				m.hasExitCode = true
			}
		case "cg-mem":
			if n, err := strconv.ParseUint(value, 10, 64); err == nil {
				m.memoryKB = n
			}
		case "time-wall":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				m.timeWall = f
			}
		case "message":
			m.message = value
		case "status":
			m.statusPresent = true
		}
	}

	return m
}

// outcome maps the parsed meta fields to a terminal case result, following
// §4.6.2's precedence: killed, then oom-killed, then a nonzero exit code.
// Returns ok=false when none apply (the case ran to a clean exit).
func (m isolateMeta) outcome() (store.JobResult, bool) {
	switch {
	case m.killed:
		return store.ResultTimeLimitExceeded, true
	case m.oomKilled:
		return store.ResultMemoryLimitExceeded, true
	case m.hasExitCode && m.exitCode != 0:
		return store.ResultRuntimeError, true
	default:
		return "", false
	}
}

// timeMicros converts the meta file's time-wall seconds into microseconds.
func (m isolateMeta) timeMicros() uint64 {
	return uint64(m.timeWall * 1_000_000)
}
