package triage

import (
	"fmt"
	"regexp"
	"strings"
)

// signature is a known failure pattern and the advice attached to it.
type signature struct {
	name   string
	re     *regexp.Regexp
	advice string
}

var signatures = []signature{
	{
		name:   "Dependency installation failed",
		re:     regexp.MustCompile(`(?i)(could not find a version that satisfies|no matching distribution found|npm err!|go: .*: (unknown revision|no matching versions)|pip.*error|failed to download|unable to resolve dependency)`),
		advice: "Check pinned versions and package index availability.",
	},
	{
		name:   "Test failures",
		re:     regexp.MustCompile(`(?i)(^--- fail:|^fail\s|\bfailed\b.*\btest|assertionerror|\d+ failed|test(s)? failed)`),
		advice: "Reproduce the failing tests locally and inspect the first assertion error.",
	},
	{
		name:   "Lint or formatting errors",
		re:     regexp.MustCompile(`(?i)(golangci-lint|flake8|ruff|eslint|pylint|would reformat|gofmt|black --check)`),
		advice: "Run the linters locally and commit the fixes.",
	},
	{
		name:   "Compilation errors",
		re:     regexp.MustCompile(`(?i)(syntaxerror|undefined:|cannot use .* as|build failed|compilation failed|error\[e\d+\]|importerror|modulenotfounderror)`),
		advice: "Fix the build error reported first; later errors often cascade from it.",
	},
	{
		name:   "Timeout",
		re:     regexp.MustCompile(`(?i)(timed out|timeout exceeded|deadline exceeded|the job running on runner .* has exceeded the maximum execution time)`),
		advice: "Look for hanging tests or raise the job timeout.",
	},
	{
		name:   "Out of memory",
		re:     regexp.MustCompile(`(?i)(out of memory|oomkilled|cannot allocate memory|memoryerror|exit code 137)`),
		advice: "Reduce parallelism or memory usage, or use a larger runner.",
	},
	{
		name:   "Permission denied",
		re:     regexp.MustCompile(`(?i)(permission denied|resource not accessible by integration|403 forbidden|eacces)`),
		advice: "Check workflow permissions, token scopes and file modes.",
	},
}

// Finding is one signature matched in the logs.
type Finding struct {
	Name     string
	Evidence string
	Advice   string
}

// Diagnose scans the excerpt for known failure signatures. Each signature is
// reported once, with the first matching line as evidence.
func Diagnose(excerpt string) []Finding {
	var out []Finding
	lines := splitLines(excerpt)
	for _, sig := range signatures {
		for _, line := range lines {
			if sig.re.MatchString(line) {
				out = append(out, Finding{Name: sig.name, Evidence: strings.TrimSpace(line), Advice: sig.advice})
				break
			}
		}
	}
	return out
}

// HeuristicReport renders a markdown report without an LLM.
func HeuristicReport(excerpt string) string {
	findings := Diagnose(excerpt)
	if len(findings) == 0 {
		return "No known failure signature matched. Review the logs excerpt below."
	}

	var sb strings.Builder
	sb.WriteString("Heuristic analysis (no LLM available) matched the following signatures:\n")
	for _, f := range findings {
		fmt.Fprintf(&sb, "\n- **%s**: `%s`\n  %s", f.Name, f.Evidence, f.Advice)
	}
	return sb.String()
}
