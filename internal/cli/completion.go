package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for memscope.

To load completions in the current shell:

  Bash:       source <(memscope completion bash)
  Zsh:        source <(memscope completion zsh)
  Fish:       memscope completion fish | source
  PowerShell: memscope completion powershell | Out-String | Invoke-Expression

To install permanently, redirect the output to your shell's completion
directory, e.g.:

  memscope completion bash > /etc/bash_completion.d/memscope
  memscope completion zsh > "${fpath[1]}/_memscope"
  memscope completion fish > ~/.config/fish/completions/memscope.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
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

	return cmd
}
