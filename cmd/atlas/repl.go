package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/lexlapax/atlas/pkg/atlas"
	"github.com/lexlapax/atlas/pkg/memory"
)

// REPL commands
const (
	cmdHelp     = "!help"
	cmdQuit     = "!quit"
	cmdRemember = "!remember"
	cmdLookup   = "!lookup"
	cmdSearch   = "!search"
	cmdRun      = "!run"
	cmdBaseline = "!baseline"
	cmdProject  = "!project"
	cmdArch     = "!arch"
	cmdMemory   = "!memory"
)

const helpText = `
Atlas - Command Reference:
-----------------------------------------
!help              - Show this help message
!remember <text>   - Store a manual memory entry
!lookup <query>    - Retrieve memories matching query by keyword
!search <query>    - Retrieve memories by similarity
!run <prompt>      - Run a prompt through the Atlas pipeline
!baseline <prompt> - Run a prompt without memory or architecture
!project           - Show the project profile
!arch              - Show the architecture graph
!memory            - List recent memory entries
!quit              - Exit the shell

Notes:
- Regular text input is treated as a prompt (same as !run)
- Tab completion is available for commands
- Use up/down arrows for command history`

// historyFile is the file where command history is stored.
const historyFile = ".atlas_history"

// runREPL starts the interactive shell.
func runREPL(ctx context.Context, a *atlas.Atlas) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(false)

	line.SetCompleter(func(input string) (c []string) {
		commands := []string{
			cmdHelp, cmdQuit, cmdRemember, cmdLookup, cmdSearch,
			cmdRun, cmdBaseline, cmdProject, cmdArch, cmdMemory,
		}
		for _, cmd := range commands {
			if strings.HasPrefix(cmd, input) {
				c = append(c, cmd)
			}
		}
		return
	})

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("\n=== Atlas ===")
	fmt.Println("Type !help for available commands.")

	for {
		input, err := line.Prompt("atlas> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == cmdQuit {
			fmt.Println("Goodbye!")
			return nil
		}

		if err := replCommand(ctx, a, input); err != nil {
			fmt.Println("Error:", err)
		}
	}
}

// replCommand handles a single shell command.
func replCommand(ctx context.Context, a *atlas.Atlas, input string) error {
	if !strings.HasPrefix(input, "!") {
		return executePrompt(ctx, a, input, atlas.Options{})
	}

	parts := strings.SplitN(input, " ", 2)
	cmd := parts[0]
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case cmdHelp:
		fmt.Println(helpText)
		return nil

	case cmdRemember:
		if arg == "" {
			return fmt.Errorf("usage: %s <text>", cmdRemember)
		}
		id, err := a.Remember(ctx, arg, "", "", nil)
		if err != nil {
			return err
		}
		fmt.Println("Memory stored:", id)
		return nil

	case cmdLookup:
		if arg == "" {
			return fmt.Errorf("usage: %s <query>", cmdLookup)
		}
		records, err := a.Lookup(ctx, arg, 10)
		if err != nil {
			return err
		}
		printRecords(records)
		return nil

	case cmdSearch:
		if arg == "" {
			return fmt.Errorf("usage: %s <query>", cmdSearch)
		}
		records, err := a.Search(ctx, arg, 10)
		if err != nil {
			return err
		}
		printRecords(records)
		return nil

	case cmdRun:
		if arg == "" {
			return fmt.Errorf("usage: %s <prompt>", cmdRun)
		}
		return executePrompt(ctx, a, arg, atlas.Options{})

	case cmdBaseline:
		if arg == "" {
			return fmt.Errorf("usage: %s <prompt>", cmdBaseline)
		}
		return executePrompt(ctx, a, arg, atlas.Options{Mode: memory.ModeBaseline})

	case cmdProject:
		fmt.Println(a.Project().Describe())
		return nil

	case cmdArch:
		fmt.Println(a.Arch().Describe())
		return nil

	case cmdMemory:
		records, err := a.ListMemory(ctx, 10)
		if err != nil {
			return err
		}
		printRecords(records)
		return nil

	default:
		return fmt.Errorf("unknown command %s (try %s)", cmd, cmdHelp)
	}
}

func printRecords(records []memory.MemoryRecord) {
	if len(records) == 0 {
		fmt.Println("No matching memory entries.")
		return
	}
	for _, record := range records {
		fmt.Printf("- [%s] intent=%s tags=%v summary=%s\n",
			record.Timestamp.Format("2006-01-02 15:04:05"),
			record.Intent, record.Tags, record.Summary)
	}
}
