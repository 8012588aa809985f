// Package cli implements the command-line interface for slotgraph.
package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imyousuf/slotgraph/internal/config"
	"github.com/imyousuf/slotgraph/internal/engine"
)

// shellTarget describes how to generate and where to install the
// completion script for one shell.
type shellTarget struct {
	generate func(root *cobra.Command, w io.Writer) error
	// userPath is relative to the home directory.
	userPath   string
	systemPath string
	hint       string
}

var shellTargets = map[string]shellTarget{
	"bash": {
		generate:   func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
		userPath:   filepath.Join(".bash_completion.d", "slotgraph"),
		systemPath: "/etc/bash_completion.d/slotgraph",
		hint:       `Add to ~/.bashrc: for f in ~/.bash_completion.d/*; do source "$f"; done`,
	},
	"zsh": {
		generate:   func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
		userPath:   filepath.Join(".zsh", "completions", "_slotgraph"),
		systemPath: "/usr/local/share/zsh/site-functions/_slotgraph",
		hint:       "Add to ~/.zshrc: fpath=(~/.zsh/completions $fpath); autoload -U compinit && compinit",
	},
	"fish": {
		generate:   func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
		userPath:   filepath.Join(".config", "fish", "completions", "slotgraph.fish"),
		systemPath: "/usr/share/fish/vendor_completions.d/slotgraph.fish",
	},
}

func newCompletionCmd() *cobra.Command {
	shells := slices.Sorted(maps.Keys(shellTargets))
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate or install shell completion scripts",
		Long: `Print the completion script for bash, zsh or fish.

Besides commands and flags, the scripts complete id widths, fan-out
strategies and the node ids stored in the current snapshot:

  source <(slotgraph completion bash)
  slotgraph completion install`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: shells,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, ok := shellTargets[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell %q (want one of %v)", args[0], shells)
			}
			if err := target.generate(cmd.Root(), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("generate %s completion: %w", args[0], err)
			}
			return nil
		},
	}
	cmd.AddCommand(newCompletionInstallCmd())
	return cmd
}

func newCompletionInstallCmd() *cobra.Command {
	var shell string
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the completion script for the current shell",
		Long: `Install the completion script for $SHELL (or --shell). Root installs
system-wide, everyone else under the home directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shell == "" {
				shell = filepath.Base(os.Getenv("SHELL"))
			}
			target, ok := shellTargets[shell]
			if !ok {
				return fmt.Errorf("unsupported shell %q; pass --shell bash, zsh or fish", shell)
			}

			path := target.systemPath
			if os.Geteuid() != 0 {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("find home directory: %w", err)
				}
				path = filepath.Join(home, target.userPath)
			}

			var script bytes.Buffer
			if err := target.generate(cmd.Root(), &script); err != nil {
				return fmt.Errorf("generate %s completion: %w", shell, err)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			if err := os.WriteFile(path, script.Bytes(), 0644); err != nil {
				return fmt.Errorf("write completion file: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Installed %s completion to %s\n", shell, path)
			if target.hint != "" && os.Geteuid() != 0 {
				fmt.Fprintln(out, target.hint)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&shell, "shell", "", "shell to install for (default: from $SHELL)")
	_ = cmd.RegisterFlagCompletionFunc("shell", cobra.FixedCompletions(
		[]string{"bash", "zsh", "fish"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func widthChoices() []string {
	out := make([]string, len(engine.Widths))
	for i, w := range engine.Widths {
		out[i] = strconv.Itoa(w)
	}
	return out
}

func strategyChoices() []string {
	return []string{string(engine.StrategyHash), string(engine.StrategyFlat)}
}

// registerShapeCompletion completes the id width and strategy flags of cmd.
func registerShapeCompletion(cmd *cobra.Command, widthFlag, strategyFlag string) {
	must := func(err error) {
		if err != nil {
			panic(fmt.Sprintf("register completion on %s: %v", cmd.Name(), err))
		}
	}
	must(cmd.RegisterFlagCompletionFunc(widthFlag,
		cobra.FixedCompletions(widthChoices(), cobra.ShellCompDirectiveNoFileComp)))
	must(cmd.RegisterFlagCompletionFunc(strategyFlag,
		cobra.FixedCompletions(strategyChoices(), cobra.ShellCompDirectiveNoFileComp)))
}

// completeNodeIDs completes the first n positional arguments with the ids
// of live nodes in the snapshot, described by their labels.
func completeNodeIDs(n int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= n {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		g, _, err := openGraph(ctx, cfg.ResolveSnapshot(snapshotPath), cfg.EngineOptions())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		var ids []string
		g.Walk(func(v engine.NodeView) bool {
			id := strconv.FormatUint(v.ID, 10)
			if !strings.HasPrefix(id, toComplete) {
				return true
			}
			if v.Record.Label != "" {
				id += "\t" + v.Record.Label
			}
			ids = append(ids, id)
			return true
		})
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}
