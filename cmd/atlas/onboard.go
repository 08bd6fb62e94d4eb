package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/lexlapax/atlas/pkg/atlas"
	"github.com/lexlapax/atlas/pkg/config"
	"github.com/lexlapax/atlas/pkg/project"
)

// runOnboard scans the repository and seeds the project profile, asking
// the user to confirm or adjust the inferred defaults.
func runOnboard(cfg *config.Config) error {
	report := project.ScanRepo(".")
	inferred := project.InferProfile(report)

	projStore, err := project.NewStore(filepath.Join(cfg.DataDir, "project.json"))
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	existing := projStore.Profile()
	if !existing.IsEmpty() {
		if !promptYesNo(line, "Project config already exists. Update it?", false) {
			fmt.Println("Onboarding canceled.")
			return nil
		}
		// Existing answers stay the defaults when updating.
		inferred = existing
	}

	fmt.Println("\nRepo scan summary:")
	fmt.Println("- Repo root:", report.RepoRoot)
	if report.ProjectName != "" {
		fmt.Println("- Project name:", report.ProjectName)
	}
	if len(report.Stack) > 0 {
		fmt.Println("- Detected stack:", strings.Join(report.Stack, ", "))
	}
	if report.ReadmeSummary != "" {
		fmt.Println("- README summary:", atlas.Summarize(report.ReadmeSummary, 100))
	}
	fmt.Println("\nAnswer a few questions to seed the project profile. Press enter to accept defaults.")
	fmt.Println()

	seeded := project.Profile{
		Goals:               promptList(line, "Project goals (comma-separated)", inferred.Goals),
		Constraints:         promptList(line, "Constraints (comma-separated)", inferred.Constraints),
		ArchitectureSummary: promptText(line, "Architecture summary", inferred.ArchitectureSummary),
		Conventions:         promptList(line, "Coding conventions (comma-separated)", inferred.Conventions),
	}

	if err := projStore.Replace(seeded); err != nil {
		return err
	}
	fmt.Printf("\nProject profile saved to %s\n", filepath.Join(cfg.DataDir, "project.json"))
	return nil
}

func promptText(line *liner.State, question, defaultValue string) string {
	suffix := ""
	if defaultValue != "" {
		suffix = fmt.Sprintf(" [%s]", defaultValue)
	}
	response, err := line.Prompt(question + suffix + ": ")
	if err != nil {
		return defaultValue
	}
	if response = strings.TrimSpace(response); response != "" {
		return response
	}
	return defaultValue
}

func promptList(line *liner.State, question string, defaults []string) []string {
	suffix := ""
	if len(defaults) > 0 {
		suffix = fmt.Sprintf(" [%s]", strings.Join(defaults, ", "))
	}
	response, err := line.Prompt(question + suffix + ": ")
	if err != nil || strings.TrimSpace(response) == "" {
		return defaults
	}

	var items []string
	for _, item := range strings.Split(response, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func promptYesNo(line *liner.State, question string, defaultYes bool) bool {
	suffix := " [y/N]"
	if defaultYes {
		suffix = " [Y/n]"
	}
	response, err := line.Prompt(question + suffix + ": ")
	if err != nil {
		return defaultYes
	}
	response = strings.ToLower(strings.TrimSpace(response))
	if response == "" {
		return defaultYes
	}
	return strings.HasPrefix(response, "y")
}
