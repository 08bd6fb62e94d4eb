package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lexlapax/atlas/pkg/log"
)

// readmeFiles are checked in order; the first one found supplies the
// project summary.
var readmeFiles = []string{"README.md", "README.rst", "README.txt"}

// keyFiles are manifest and tooling files whose presence hints at the
// project's stack.
var keyFiles = []string{
	"package.json",
	"pyproject.toml",
	"requirements.txt",
	"Pipfile",
	"Cargo.toml",
	"go.mod",
	"pom.xml",
	"build.gradle",
	"build.gradle.kts",
	"Makefile",
	"Dockerfile",
	"docker-compose.yml",
	"tsconfig.json",
	".python-version",
	".nvmrc",
}

// maxSignalChars caps how much of each signal file is read.
const maxSignalChars = 4000

var pyprojectNamePattern = regexp.MustCompile(`name\s*=\s*"([^"]+)"`)

// ScanReport summarizes what a repository scan found.
type ScanReport struct {
	RepoRoot      string
	ProjectName   string
	Stack         []string
	ReadmeSummary string
}

// ScanRepo inspects the repository containing start and returns what it
// could detect. It never fails; missing signals just leave fields empty.
func ScanRepo(start string) ScanReport {
	root := FindRepoRoot(start)
	signals := loadRepoSignals(root)

	var readme string
	for _, name := range readmeFiles {
		if text, ok := signals[name]; ok {
			readme = text
			break
		}
	}

	report := ScanReport{
		RepoRoot:      root,
		ProjectName:   detectProjectName(signals, root),
		Stack:         detectStack(signals),
		ReadmeSummary: extractReadmeSummary(readme),
	}

	log.Debug("Scanned repository", "root", root, "project", report.ProjectName, "stack", report.Stack)
	return report
}

// InferProfile derives a default profile from a scan report, used to seed
// the onboarding prompts.
func InferProfile(report ScanReport) Profile {
	return Profile{
		Goals:               inferGoals(report.ProjectName, report.ReadmeSummary),
		Constraints:         inferConstraints(report.Stack),
		ArchitectureSummary: inferArchitecture(report.Stack),
		Conventions:         inferConventions(report.Stack),
	}
}

// FindRepoRoot walks up from start looking for a .git directory. If none is
// found the start directory itself is returned.
func FindRepoRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func loadRepoSignals(root string) map[string]string {
	signals := make(map[string]string)
	for _, name := range readmeFiles {
		if text := safeReadFile(filepath.Join(root, name)); text != "" {
			signals[name] = text
			break
		}
	}
	for _, name := range keyFiles {
		if text := safeReadFile(filepath.Join(root, name)); text != "" {
			signals[name] = text
		}
	}
	return signals
}

func safeReadFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if len(data) > maxSignalChars {
		data = data[:maxSignalChars]
	}
	return string(data)
}

func extractReadmeSummary(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if cleaned := strings.TrimSpace(line); cleaned != "" {
			return cleaned
		}
	}
	return ""
}

func detectProjectName(signals map[string]string, root string) string {
	if packageText, ok := signals["package.json"]; ok {
		var payload struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal([]byte(packageText), &payload); err == nil {
			if name := strings.TrimSpace(payload.Name); name != "" {
				return name
			}
		}
	}
	if pyprojectText, ok := signals["pyproject.toml"]; ok {
		if match := pyprojectNamePattern.FindStringSubmatch(pyprojectText); match != nil {
			return strings.TrimSpace(match[1])
		}
	}
	return filepath.Base(root)
}

func detectStack(signals map[string]string) []string {
	var combined strings.Builder
	for _, text := range signals {
		combined.WriteString(strings.ToLower(text))
		combined.WriteByte(' ')
	}
	lowered := combined.String()

	has := func(names ...string) bool {
		for _, name := range names {
			if _, ok := signals[name]; ok {
				return true
			}
		}
		return false
	}

	var stack []string
	if has("package.json") {
		stack = append(stack, "Node.js")
	}
	if has("tsconfig.json") || strings.Contains(lowered, "typescript") {
		stack = append(stack, "TypeScript")
	}
	if has("pyproject.toml", "requirements.txt", "Pipfile") {
		stack = append(stack, "Python")
	}
	if strings.Contains(lowered, "fastapi") {
		stack = append(stack, "FastAPI")
	}
	if strings.Contains(lowered, "django") {
		stack = append(stack, "Django")
	}
	if has("go.mod") {
		stack = append(stack, "Go")
	}
	if has("Cargo.toml") {
		stack = append(stack, "Rust")
	}
	if has("pom.xml", "build.gradle", "build.gradle.kts") {
		stack = append(stack, "Java")
	}
	return stack
}

func inferGoals(projectName, summary string) []string {
	if summary != "" {
		if !strings.HasSuffix(summary, ".") {
			summary += "."
		}
		return []string{summary}
	}
	if projectName != "" {
		return []string{"Deliver core features for " + projectName + "."}
	}
	return nil
}

func inferConstraints(stack []string) []string {
	if len(stack) > 0 {
		return []string{"Prefer " + stack[0] + " conventions."}
	}
	return nil
}

func inferArchitecture(stack []string) string {
	for _, candidate := range []string{"FastAPI", "Django", "Node.js", "Go", "Rust", "Java"} {
		for _, entry := range stack {
			if entry == candidate {
				return candidate + " service exposing REST endpoints."
			}
		}
	}
	return ""
}

func inferConventions(stack []string) []string {
	contains := func(name string) bool {
		for _, entry := range stack {
			if entry == name {
				return true
			}
		}
		return false
	}

	switch {
	case contains("Python"):
		return []string{"snake_case functions, type hints preferred."}
	case contains("Node.js") || contains("TypeScript"):
		return []string{"camelCase functions, lint with eslint."}
	case contains("Go"):
		return []string{"gofmt formatting, short functions."}
	case contains("Rust"):
		return []string{"rustfmt formatting, clippy for linting."}
	case contains("Java"):
		return []string{"camelCase methods, standard formatter."}
	}
	return nil
}
