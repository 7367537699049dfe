// Package triage turns the logs of a failed CI run into a GitHub issue.
package triage

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hpcloud/tail"
)

const (
	noLogFiles = "No log files found."
	noLogs     = "No logs available."
)

// logExtensions are the file types collected from an unpacked run archive.
var logExtensions = map[string]bool{".txt": true, ".log": true}

// TailLines keeps the last n lines of text. A non-positive n keeps everything.
func TailLines(text string, n int) string {
	return strings.Join(lastN(splitLines(text), n), "\n")
}

func lastN(lines []string, n int) []string {
	if n <= 0 || n >= len(lines) {
		return lines
	}
	return lines[len(lines)-n:]
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// CollectLogsExcerpt finds every log file under root and returns a bulleted
// list of their relative paths plus an excerpt holding the last tail lines
// of each. Unreadable files are skipped.
func CollectLogsExcerpt(root string, tailLines int) (jobsSummary, excerpt string) {
	files := findLogFiles(root)
	if len(files) == 0 {
		return noLogFiles, noLogs
	}

	jobs := make([]string, 0, len(files))
	parts := make([]string, 0, len(files))
	for _, f := range files {
		lines, err := readLines(f)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, f)
		if err != nil {
			rel = f
		}
		rel = filepath.ToSlash(rel)
		jobs = append(jobs, "- "+rel)
		parts = append(parts, fmt.Sprintf("===== %s =====\n%s\n", rel, strings.Join(lastN(lines, tailLines), "\n")))
	}
	return strings.Join(jobs, "\n"), strings.Join(parts, "\n")
}

func findLogFiles(root string) []string {
	var files []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped; a missing root yields nothing.
			return nil
		}
		if !d.IsDir() && logExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

// readLines reads a whole file line by line without following it.
func readLines(path string) ([]string, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    false,
		MustExist: true,
		Poll:      true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer t.Cleanup()

	var lines []string
	for line := range t.Lines {
		if line.Err != nil {
			return nil, line.Err
		}
		lines = append(lines, strings.TrimRight(line.Text, "\r"))
	}
	return lines, nil
}
