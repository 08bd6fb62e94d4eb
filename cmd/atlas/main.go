// Command atlas is the CLI for the Atlas memory and context-assembly
// library: persistent project memory, an architecture graph, and a
// retrieval-augmented prompt pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexlapax/atlas/pkg/arch"
	"github.com/lexlapax/atlas/pkg/atlas"
	"github.com/lexlapax/atlas/pkg/config"
	"github.com/lexlapax/atlas/pkg/goals"
	"github.com/lexlapax/atlas/pkg/memory"
	"github.com/lexlapax/atlas/pkg/project"
)

const usageText = `Usage: atlas [-config path] <command> [options]

Commands:
  init      Initialize the data directory with empty files
  project   Inspect or update the project profile
  memory    List or add memory entries
  arch      Inspect or modify the architecture graph
  run       Run a prompt through the Atlas pipeline
  onboard   Scan the repository and seed the project profile
  demo      Run the scripted demo sequence
  show      Show project, memory, and architecture summaries
  repl      Start the interactive shell
`

// stringList collects repeated flag values.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	command, rest := args[0], args[1:]

	var err error
	switch command {
	case "init":
		err = runInit(loadConfig(*configPath), rest)
	case "onboard":
		err = runOnboard(loadConfig(*configPath))
	case "project":
		err = withAtlas(ctx, *configPath, func(a *atlas.Atlas) error {
			return runProject(a, rest)
		})
	case "memory":
		err = withAtlas(ctx, *configPath, func(a *atlas.Atlas) error {
			return runMemory(ctx, a, rest)
		})
	case "arch":
		err = withAtlas(ctx, *configPath, func(a *atlas.Atlas) error {
			return runArch(a, rest)
		})
	case "run":
		err = withAtlas(ctx, *configPath, func(a *atlas.Atlas) error {
			return runPrompt(ctx, a, rest)
		})
	case "demo":
		err = withAtlas(ctx, *configPath, func(a *atlas.Atlas) error {
			return runDemo(ctx, a)
		})
	case "show":
		err = withAtlas(ctx, *configPath, func(a *atlas.Atlas) error {
			return runShow(ctx, a)
		})
	case "repl":
		err = withAtlas(ctx, *configPath, func(a *atlas.Atlas) error {
			return runREPL(ctx, a)
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", command, usageText)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when given, otherwise the defaults plus
// environment overrides.
func loadConfig(path string) *config.Config {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.LoadFromBytes(nil)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	return cfg
}

func withAtlas(ctx context.Context, configPath string, fn func(*atlas.Atlas) error) error {
	var a *atlas.Atlas
	var err error
	if configPath != "" {
		a, err = atlas.NewFromConfigFile(ctx, configPath)
	} else {
		a, err = atlas.NewFromConfig(ctx, loadConfig(""))
	}
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func runInit(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	seed := fs.Bool("seed", false, "Seed the project profile with demo content")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}

	projStore, err := project.NewStore(filepath.Join(cfg.DataDir, "project.json"))
	if err != nil {
		return err
	}
	if *seed {
		if err := projStore.Replace(project.DefaultProfile()); err != nil {
			return err
		}
	}

	abs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		abs = cfg.DataDir
	}
	fmt.Printf("Initialized atlas data in %s\n", abs)
	return nil
}

func runProject(a *atlas.Atlas, args []string) error {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	show := fs.Bool("show", false, "Print current project summary")
	var goalFlags, constraintFlags stringList
	fs.Var(&goalFlags, "goal", "Add a project goal (repeatable)")
	fs.Var(&constraintFlags, "constraint", "Add a project constraint (repeatable)")
	architecture := fs.String("architecture", "", "Set a short architecture summary")
	convention := fs.String("convention", "", "Set coding conventions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	hasUpdate := len(goalFlags) > 0 || len(constraintFlags) > 0 ||
		*architecture != "" || *convention != ""

	if *show || !hasUpdate {
		fmt.Println(a.Project().Describe())
	}
	if !hasUpdate {
		return nil
	}

	if len(goalFlags) > 0 {
		if err := a.Project().AddGoals(goalFlags...); err != nil {
			return err
		}
	}
	if len(constraintFlags) > 0 {
		if err := a.Project().AddConstraints(constraintFlags...); err != nil {
			return err
		}
	}
	if *architecture != "" {
		if err := a.Project().SetArchitectureSummary(*architecture); err != nil {
			return err
		}
	}
	if *convention != "" {
		if err := a.Project().SetConventions(*convention); err != nil {
			return err
		}
	}
	fmt.Println("Project updated.")
	return nil
}

func runMemory(ctx context.Context, a *atlas.Atlas, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("memory requires an action: list or add")
	}
	action, rest := args[0], args[1:]

	fs := flag.NewFlagSet("memory", flag.ExitOnError)
	text := fs.String("text", "", "Text describing the memory entry")
	intent := fs.String("intent", "", "Explicit intent for the memory")
	note := fs.String("note", "", "Optional note/journal")
	tags := fs.String("tags", "", "Comma-separated tags")
	limit := fs.Int("limit", 10, "Limit number of memories shown")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	switch action {
	case "list":
		records, err := a.ListMemory(ctx, *limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No memory entries yet.")
			return nil
		}
		for _, record := range records {
			fmt.Printf("- [%s] intent=%s tags=%v summary=%s\n",
				record.Timestamp.Format("2006-01-02 15:04:05"),
				record.Intent, record.Tags, record.Summary)
		}
		return nil

	case "add":
		if *text == "" {
			return fmt.Errorf("provide -text when adding memory")
		}
		if _, err := a.Remember(ctx, *text, *intent, *note, splitTags(*tags)); err != nil {
			return err
		}
		fmt.Println("Memory entry added.")
		return nil

	default:
		return fmt.Errorf("unknown memory action: %s", action)
	}
}

func runArch(a *atlas.Atlas, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("arch requires an action: list, add-node or add-edge")
	}
	action, rest := args[0], args[1:]

	fs := flag.NewFlagSet("arch", flag.ExitOnError)
	name := fs.String("name", "", "Node name")
	nodeType := fs.String("type", "", "Node type (service, api, model, other)")
	description := fs.String("description", "", "Node description")
	source := fs.String("source", "", "Edge source node")
	target := fs.String("target", "", "Edge target node")
	label := fs.String("label", "", "Edge label describing relationship")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	switch action {
	case "list":
		fmt.Println(a.Arch().Describe())
		return nil

	case "add-node":
		if *name == "" || *nodeType == "" || *description == "" {
			return fmt.Errorf("add-node requires -name, -type, and -description")
		}
		if err := a.Arch().AddNode(*name, arch.ParseNodeType(*nodeType), *description); err != nil {
			return err
		}
		fmt.Println("Node added.")
		return nil

	case "add-edge":
		if *source == "" || *target == "" || *label == "" {
			return fmt.Errorf("add-edge requires -source, -target, and -label")
		}
		if err := a.Arch().AddEdge(*source, *target, *label); err != nil {
			return err
		}
		fmt.Println("Edge added.")
		return nil

	default:
		return fmt.Errorf("unknown arch action: %s", action)
	}
}

func runPrompt(ctx context.Context, a *atlas.Atlas, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	prompt := fs.String("prompt", "", "User engineering prompt")
	mode := fs.String("mode", memory.ModeAtlas, "Mode to execute (atlas or baseline)")
	note := fs.String("note", "", "Short note for memory")
	tags := fs.String("tags", "", "Comma-separated tags for the memory entry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *prompt == "" {
		return fmt.Errorf("provide -prompt")
	}
	if *mode != memory.ModeAtlas && *mode != memory.ModeBaseline {
		return fmt.Errorf("mode must be atlas or baseline")
	}

	return executePrompt(ctx, a, *prompt, atlas.Options{
		Mode: *mode,
		Note: *note,
		Tags: splitTags(*tags),
	})
}

// executePrompt runs a prompt and renders the report, shared by the run
// command, the demo sequence, and the REPL.
func executePrompt(ctx context.Context, a *atlas.Atlas, prompt string, opts atlas.Options) error {
	mode := opts.Mode
	if mode == "" {
		mode = memory.ModeAtlas
	}
	fmt.Printf("\nRunning Atlas (mode=%s) for prompt:\n%s\n\n", mode, prompt)

	report, err := a.RunPrompt(ctx, prompt, opts)
	if err != nil {
		return err
	}

	if report.Mode == memory.ModeBaseline {
		fmt.Println("Baseline output (stateless):")
		fmt.Println()
		fmt.Println(report.Response)
		fmt.Println("\nBaseline notes: no memory or architecture was injected.")
		return nil
	}

	fmt.Println("Atlas-enhanced response:")
	fmt.Println()
	fmt.Println(report.Response)
	fmt.Println("\nGoal validation:")
	printGoalResults(report.Goals)
	return nil
}

func printGoalResults(results []goals.Result) {
	if len(results) == 0 {
		fmt.Println("- No goals recorded yet.")
		return
	}
	fmt.Printf("- Goals satisfied: %d/%d\n", goals.Satisfied(results), len(results))
	for _, result := range results {
		marker := "x"
		if result.Passed {
			marker = "ok"
		}
		fmt.Printf("  [%s] %s\n", marker, result.Goal)
	}
}

func runShow(ctx context.Context, a *atlas.Atlas) error {
	fmt.Println(a.Project().Describe())

	records, err := a.ListMemory(ctx, 0)
	if err != nil {
		return err
	}
	fmt.Printf("\nMemory entries: %d\n\n", len(records))
	fmt.Println(a.Arch().Describe())
	return nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
