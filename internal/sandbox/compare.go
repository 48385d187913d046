package sandbox

import (
	"log/slog"
	"strings"

	"github.com/judgehub/judgehub/internal/config"
)

// judge compares program output to the case's expected answer per the
// problem's judge type. spj and dynamic_ranking are not implemented; they
// log a warning and soft-fail to false (Wrong Answer) so a misconfigured
// problem never silently scores.
func judge(judgeType config.JudgeType, output, expected string) bool {
	switch judgeType {
	case config.JudgeStandard:
		return compareStandard(output, expected)
	case config.JudgeStrict:
		return compareStrict(output, expected)
	default:
		slog.Warn("judge type not implemented, treating case as Wrong Answer", "judge_type", judgeType)
		return false
	}
}

// compareStandard trims trailing whitespace from each line and drops
// trailing empty lines before comparing, matching typical contest judging
// leniency.
func compareStandard(got, want string) bool {
	return normalizeStandard(got) == normalizeStandard(want)
}

func normalizeStandard(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// compareStrict requires byte-for-byte equality.
func compareStrict(got, want string) bool {
	return got == want
}
