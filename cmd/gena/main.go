package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/genaproject/gena/internal/archive"
	genamcp "github.com/genaproject/gena/internal/mcp"
	"github.com/genaproject/gena/internal/pattern"
	"github.com/genaproject/gena/internal/repo"
	"github.com/genaproject/gena/internal/state"
	"github.com/genaproject/gena/internal/store"
	"github.com/genaproject/gena/internal/ui"
	"github.com/genaproject/gena/internal/validate"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

var repoPath string

func main() {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "gena",
		Short: "gena — repository pattern analysis and evolutionary state tracking",
		Long:  "A local CLI tool that detects emergent patterns in a repository's history and layout, and tracks its evolutionary state in a persisted document.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.Init(noColor)
		},
	}

	rootCmd.Version = buildVersion()
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVarP(&repoPath, "path", "C", ".", "Repository to operate on")

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "state", Title: "State Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration:"},
	)

	initC := initCmd()
	initC.GroupID = "core"
	analyzeC := analyzeCmd()
	analyzeC.GroupID = "core"
	recordC := recordCmd()
	recordC.GroupID = "core"
	validateC := validateCmd()
	validateC.GroupID = "core"
	doctorC := doctorCmd()
	doctorC.GroupID = "core"
	reportsC := reportsCmd()
	reportsC.GroupID = "core"

	stateC := stateCmd()
	stateC.GroupID = "state"

	configC := configCmd()
	configC.GroupID = "config"

	rootCmd.AddCommand(initC)
	rootCmd.AddCommand(analyzeC)
	rootCmd.AddCommand(recordC)
	rootCmd.AddCommand(reportsC)
	rootCmd.AddCommand(stateC)
	rootCmd.AddCommand(validateC)
	rootCmd.AddCommand(doctorC)
	rootCmd.AddCommand(configC)
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(completionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func repoRoot() string {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return repoPath
	}
	return abs
}

func loadStore() (*store.Store, error) {
	s, err := store.Load(repoRoot())
	if err != nil {
		return nil, fmt.Errorf("gena not initialized — run 'gena init' first: %w", err)
	}
	return s, nil
}

// loadConfig returns the workspace config, falling back to defaults when the
// repository has no workspace yet. Analysis works either way; only the state
// tracker needs an initialized workspace.
func loadConfig() store.Config {
	s, err := store.Load(repoRoot())
	if err != nil {
		return store.DefaultConfig()
	}
	return s.Config
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Initialize the gena workspace for a repository",
		Long:    "Create the .gena directory inside the repository with a default config.yaml. Run this once before using the state tracker.",
		Example: "  gena init\n  gena init --force",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := store.Dir(repoRoot())
			if force {
				if _, err := os.Stat(dir); err == nil {
					ok, err := ui.Confirm(fmt.Sprintf("Reinitialize workspace at %s? Existing config will be overwritten.", dir))
					if err != nil {
						return err
					}
					if !ok {
						ui.Info("Aborted")
						return nil
					}
				}
			}
			if err := store.Init(dir, force); err != nil {
				return err
			}
			ui.Success("gena initialized")
			ui.Detail("Workspace:", dir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Reinitialize even if the workspace already exists")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var depth int
	var asJSON, save bool
	cmd := &cobra.Command{
		Use:     "analyze",
		Short:   "Run recursive pattern analysis and print the report",
		Long:    "Analyze the repository's commit history, file layout, and documentation for emergent patterns, up to a configured recursion depth. Analysis failures are logged and never fail the command.",
		Example: "  gena analyze\n  gena analyze --depth 3\n  gena analyze --json\n  gena analyze --save",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !asJSON {
				ui.CommandBanner("analyze", "recursive pattern analysis")
			}

			cfg := loadConfig()
			if depth < 0 {
				depth = 0
			}
			maxDepth := cfg.Analyzer.MaxDepth
			if cmd.Flags().Changed("depth") {
				maxDepth = depth
			}

			var patterns []pattern.Pattern
			var head string
			r, err := repo.Open(repoRoot())
			if err != nil {
				ui.Logger.Warn("repository unavailable", "err", err)
			} else {
				head = r.Head()
				analyzer := pattern.New(r,
					pattern.WithMaxDepth(maxDepth),
					pattern.WithMarkers(cfg.Analyzer.Markers))
				patterns = analyzer.AnalyzeAll()
			}

			report := pattern.Report(patterns, maxDepth)

			if save {
				s, err := loadStore()
				if err != nil {
					ui.Error(err.Error())
				} else {
					meta := archive.Meta{
						Repository: s.Root,
						Head:       head,
						Patterns:   len(patterns),
						MaxDepth:   maxDepth,
						Timestamp:  time.Now().UTC(),
					}
					path, err := archive.Save(s, meta, report)
					if err != nil {
						ui.Error(fmt.Sprintf("failed to archive report: %v", err))
					} else {
						ui.Success("Report archived")
						ui.Detail("File:", path)
					}
				}
			}

			if asJSON {
				out, err := json.MarshalIndent(patterns, "", "  ")
				if err != nil {
					ui.Error(fmt.Sprintf("failed to encode patterns: %v", err))
					return nil
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Println(report)
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "Maximum recursion depth (overrides config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit patterns as JSON instead of the report")
	cmd.Flags().BoolVar(&save, "save", false, "Archive the report under the workspace reports directory")
	return cmd
}

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Short:   "List archived analysis reports",
		Example: "  gena reports\n  gena reports show 20260314T092653Z.md",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				ui.Error(err.Error())
				return nil
			}
			reports, err := archive.List(s)
			if err != nil {
				ui.Error(err.Error())
				return nil
			}
			if len(reports) == 0 {
				ui.EmptyState("No archived reports. Run 'gena analyze --save' to create one.")
				return nil
			}

			headers := []string{"TIMESTAMP", "PATTERNS", "DEPTH", "FILE"}
			var rows [][]string
			for _, r := range reports {
				rows = append(rows, []string{
					r.Frontmatter.Timestamp.Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%d", r.Frontmatter.Patterns),
					fmt.Sprintf("%d", r.Frontmatter.MaxDepth),
					filepath.Base(r.FilePath),
				})
			}
			ui.Table(headers, rows)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <file>",
		Short: "Print an archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				ui.Error(err.Error())
				return nil
			}
			path := args[0]
			if _, statErr := os.Stat(path); statErr != nil {
				path = s.Path("reports", args[0])
			}
			r, err := archive.Load(path)
			if err != nil {
				ui.Error(err.Error())
				return nil
			}
			fmt.Println(r.Body)
			return nil
		},
	})

	return cmd
}

func recordCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "record",
		Short:   "Analyze the repository and persist detected patterns",
		Long:    "Run the full pattern analysis and append every detected pattern to the state document, followed by a single analysis event.",
		Example: "  gena record",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				ui.Error(err.Error())
				return nil
			}

			r, err := repo.Open(s.Root)
			if err != nil {
				ui.Logger.Warn("repository unavailable", "err", err)
				return nil
			}

			analyzer := pattern.New(r,
				pattern.WithMaxDepth(s.Config.Analyzer.MaxDepth),
				pattern.WithMarkers(s.Config.Analyzer.Markers))
			patterns := analyzer.AnalyzeAll()

			tracker := state.NewTracker(s.StatePath())
			recorded := 0
			for _, p := range patterns {
				if err := tracker.DetectPattern(p.Type, p.Description, p.Confidence); err != nil {
					ui.Logger.Error("failed to record pattern", "type", p.Type, "err", err)
					continue
				}
				recorded++
			}

			notes := fmt.Sprintf("%d pattern(s) recorded", recorded)
			if err := tracker.RecordEvent("analysis_completed", notes, true); err != nil {
				ui.Logger.Error("failed to record analysis event", "err", err)
			}

			ui.Success(fmt.Sprintf("Recorded %d of %d detected pattern(s)", recorded, len(patterns)))
			return nil
		},
	}
}

func stateCmd() *cobra.Command {
	var pretty, asJSON bool
	cmd := &cobra.Command{
		Use:     "state",
		Short:   "Show and mutate the repository's evolutionary state",
		Example: "  gena state\n  gena state --pretty\n  gena state transition evolving --reason 'first analysis'",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				ui.Error(err.Error())
				return nil
			}
			tracker := state.NewTracker(s.StatePath())

			if asJSON {
				doc, err := tracker.Document()
				if err != nil {
					ui.Error(err.Error())
					return nil
				}
				out, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					ui.Error(fmt.Sprintf("failed to encode state: %v", err))
					return nil
				}
				fmt.Println(string(out))
				return nil
			}

			if pretty {
				md, err := tracker.SummaryMarkdown()
				if err != nil {
					ui.Error(err.Error())
					return nil
				}
				ui.RenderMarkdown(md)
				return nil
			}

			summary, err := tracker.Summary()
			if err != nil {
				ui.Error(err.Error())
				return nil
			}
			fmt.Println(summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Render the summary as styled markdown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full state document as JSON")

	cmd.AddCommand(stateEventCmd())
	cmd.AddCommand(stateTransitionCmd())
	cmd.AddCommand(stateDeepenCmd())
	cmd.AddCommand(stateDimCmd())
	return cmd
}

func stateEventCmd() *cobra.Command {
	var notes string
	var nonCompliant bool
	cmd := &cobra.Command{
		Use:     "event <event>",
		Short:   "Append a state event to the history",
		Example: "  gena state event analysis_started\n  gena state event review --notes 'quarterly' --non-compliant",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				ui.Error(err.Error())
				return nil
			}
			tracker := state.NewTracker(s.StatePath())
			if err := tracker.RecordEvent(args[0], notes, !nonCompliant); err != nil {
				ui.Error(fmt.Sprintf("failed to record event: %v", err))
				return nil
			}
			ui.Success("Event recorded")
			ui.Detail("Event:", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes for the event")
	cmd.Flags().BoolVar(&nonCompliant, "non-compliant", false, "Mark the event as not ethically compliant")
	return cmd
}

func stateTransitionCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:     "transition <new-state>",
		Short:   "Transition the lifecycle state",
		Example: "  gena state transition evolving --reason 'patterns detected'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				ui.Error(err.Error())
				return nil
			}
			tracker := state.NewTracker(s.StatePath())
			cur, err := tracker.Current()
			if err != nil {
				ui.Error(err.Error())
				return nil
			}
			if err := tracker.Transition(args[0], reason); err != nil {
				ui.Error(fmt.Sprintf("transition failed: %v", err))
				return nil
			}
			ui.Success(fmt.Sprintf("Transitioned %s → %s", cur.State, args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the transition happened")
	return cmd
}

func stateDeepenCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "deepen",
		Short:   "Increase the persisted recursive analysis depth",
		Example: "  gena state deepen",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				ui.Error(err.Error())
				return nil
			}
			tracker := state.NewTracker(s.StatePath())
			if err := tracker.IncreaseRecursiveDepth(); err != nil {
				ui.Warning(fmt.Sprintf("depth not increased: %v", err))
				return nil
			}
			doc, _ := tracker.Document()
			ui.Success(fmt.Sprintf("Recursive depth is now %d/%d",
				doc.Patterns.Recursive.Depth, doc.Patterns.Recursive.MaxDepth))
			return nil
		},
	}
}

func stateDimCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dim <dimension> <key> <value>",
		Short:   "Set a key in one of the state document's dimensions",
		Long:    "Upsert a key in one of the five dimensions (temporal, spatial, conceptual, relational, ethical). The value is parsed as JSON when possible, otherwise stored as a string.",
		Example: "  gena state dim temporal cadence weekly\n  gena state dim conceptual maturity 3",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				ui.Error(err.Error())
				return nil
			}

			var value any
			if err := json.Unmarshal([]byte(args[2]), &value); err != nil {
				value = args[2]
			}

			tracker := state.NewTracker(s.StatePath())
			if err := tracker.SetDimension(args[0], args[1], value); err != nil {
				ui.Error(fmt.Sprintf("failed to set dimension: %v", err))
				return nil
			}
			ui.Success(fmt.Sprintf("Set %s.%s", args[0], args[1]))
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	var genesisFile string
	cmd := &cobra.Command{
		Use:          "validate",
		Short:        "Validate the genesis configuration",
		Long:         "Check genesis.json for structural integrity, commitment compliance, and immutable history. Exits non-zero when any check reports an error.",
		Example:      "  gena validate\n  gena validate --genesis ./genesis.json",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := genesisFile
			if path == "" {
				if s, err := store.Load(repoRoot()); err == nil {
					path = s.GenesisPath()
				} else {
					path = filepath.Join(repoRoot(), store.DefaultConfig().Genesis.File)
				}
			}

			r, err := repo.Open(repoRoot())
			if err != nil {
				ui.Logger.Warn("repository unavailable", "err", err)
				r = nil
			}

			v := validate.New(path, r)
			ok := v.Run()
			fmt.Println(v.Report())
			if !ok {
				return fmt.Errorf("validation failed with %d error(s)", v.ErrorCount())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&genesisFile, "genesis", "", "Path to the genesis configuration file")
	return cmd
}

func doctorCmd() *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:     "doctor",
		Short:   "Check workspace and state document health",
		Example: "  gena doctor\n  gena doctor --fix",
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.SectionHeader("Workspace Health")
			dir := store.Dir(repoRoot())

			if fix {
				fixed := store.FixIssues(dir)
				for _, f := range fixed {
					ui.Success(f)
				}
			}

			issues := store.CheckHealth(dir)
			if s, err := store.Load(repoRoot()); err == nil {
				issues = append(issues, store.CheckStateIntegrity(s.StatePath())...)
			}

			if len(issues) == 0 {
				ui.Success("Workspace is healthy")
				return nil
			}
			for _, issue := range issues {
				if issue.Severity == "error" {
					ui.Error(issue.Message)
				} else {
					ui.Warning(issue.Message)
				}
			}
			return fmt.Errorf("%d issue(s) found", len(issues))
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "Attempt to repair simple issues")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and set workspace configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				return err
			}
			ui.KeyValue("analyzer.max_depth:", fmt.Sprintf("%d", s.Config.Analyzer.MaxDepth))
			ui.KeyValue("state.file:        ", s.Config.State.File)
			ui.KeyValue("genesis.file:      ", s.Config.Genesis.File)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Set a config value by dot-path key",
		Example: "  gena config set analyzer.max_depth 3",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				return err
			}
			if err := s.SetConfigValue(args[0], args[1]); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Set %s = %s", args[0], args[1]))
			return nil
		},
	})

	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the gena MCP server on stdio",
		Long:  "Expose the analyzer and state tracker as MCP tools so agent runtimes can query and append to the repository's evolutionary state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				return err
			}
			server := genamcp.NewServer(s, buildVersion())
			return server.Run(context.Background())
		},
	}
}

func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Hidden:    true,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
