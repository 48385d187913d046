// Package config loads and validates the judge's static configuration: the
// server binding, the problem set, and the supported languages.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// JudgeType selects how a test case's output is compared against the
// expected answer.
type JudgeType string

const (
	JudgeStandard       JudgeType = "standard"
	JudgeStrict         JudgeType = "strict"
	JudgeSPJ            JudgeType = "spj"
	JudgeDynamicRanking JudgeType = "dynamic_ranking"
)

func (t JudgeType) valid() bool {
	switch t {
	case JudgeStandard, JudgeStrict, JudgeSPJ, JudgeDynamicRanking:
		return true
	default:
		return false
	}
}

// Case is one configured test case for a problem.
type Case struct {
	Score      float64 `json:"score"`
	InputFile  string  `json:"input_file"`
	AnswerFile string  `json:"answer_file"`
	// TimeLimit is in microseconds.
	TimeLimit uint64 `json:"time_limit"`
	// MemoryLimit is in kilobytes.
	MemoryLimit uint64 `json:"memory_limit"`
}

// Problem is one configured judgeable problem.
type Problem struct {
	ID    uint32    `json:"id"`
	Name  string    `json:"name"`
	Type  JudgeType `json:"type"`
	Cases []Case    `json:"cases"`
}

// TotalCases returns the number of job_case rows a submission against this
// problem needs, including the leading compile case.
func (p Problem) TotalCases() int {
	return 1 + len(p.Cases)
}

// Language is one configured compiler/runtime.
type Language struct {
	Name     string   `json:"name"`
	FileName string   `json:"file_name"`
	Command  []string `json:"command"`
}

// Server holds the HTTP bind settings.
type Server struct {
	BindAddress string `json:"bind_address"`
	BindPort    uint16 `json:"bind_port"`
	Blocking    bool   `json:"blocking"`
}

// Config is the parsed, validated contents of the judge's JSON config file.
type Config struct {
	Server    Server     `json:"server"`
	Problems  []Problem  `json:"problems"`
	Languages []Language `json:"languages"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	seenProblems := make(map[uint32]struct{}, len(c.Problems))
	for _, p := range c.Problems {
		if !p.Type.valid() {
			return fmt.Errorf("problem %d: unknown judge type %q", p.ID, p.Type)
		}
		if _, dup := seenProblems[p.ID]; dup {
			return fmt.Errorf("problem %d: duplicate id", p.ID)
		}
		seenProblems[p.ID] = struct{}{}
		for i, c := range p.Cases {
			if c.Score < 0 {
				return fmt.Errorf("problem %d case %d: negative score", p.ID, i)
			}
		}
	}

	seenLanguages := make(map[string]struct{}, len(c.Languages))
	for _, l := range c.Languages {
		if l.Name == "" {
			return fmt.Errorf("language with empty name")
		}
		if _, dup := seenLanguages[l.Name]; dup {
			return fmt.Errorf("language %q: duplicate name", l.Name)
		}
		seenLanguages[l.Name] = struct{}{}
	}

	return nil
}

// FindProblem returns the problem with the given id, or false.
func (c *Config) FindProblem(id uint32) (Problem, bool) {
	for _, p := range c.Problems {
		if p.ID == id {
			return p, true
		}
	}
	return Problem{}, false
}

// FindLanguage returns the language with the given name, or false.
func (c *Config) FindLanguage(name string) (Language, bool) {
	for _, l := range c.Languages {
		if l.Name == name {
			return l, true
		}
	}
	return Language{}, false
}
