package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/skills"
)

// newSkillsCmd creates `jarvis skills`: workspace skill management.
func newSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Manage workspace skills",
		Long: `Skills are markdown files in the workspace skills/ directory,
folded into the agent's system prompt.

Examples:
  jarvis skills list
  jarvis skills install ./my-skill.md
  jarvis skills remove my-skill`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List installed skills",
			RunE: func(cmd *cobra.Command, _ []string) error {
				workspace, err := resolveWorkspace(cmd)
				if err != nil {
					return err
				}
				installed, err := skills.List(workspace)
				if err != nil {
					return err
				}
				if len(installed) == 0 {
					fmt.Println("No skills installed.")
					return nil
				}
				for _, s := range installed {
					summary := firstLine(s.Content)
					fmt.Printf("  %-20s %s\n", s.Name, summary)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "install PATH",
			Short: "Install a skill file or directory of skills",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				workspace, err := resolveWorkspace(cmd)
				if err != nil {
					return err
				}
				names, err := skills.Install(workspace, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Installed: %s\n", strings.Join(names, ", "))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove NAME",
			Short: "Remove an installed skill",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				workspace, err := resolveWorkspace(cmd)
				if err != nil {
					return err
				}
				existed, err := skills.Remove(workspace, args[0])
				if err != nil {
					return err
				}
				if !existed {
					return fmt.Errorf("no skill named %q", args[0])
				}
				fmt.Println("Skill removed.")
				return nil
			},
		},
	)
	return cmd
}

func resolveWorkspace(cmd *cobra.Command) (string, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.Workspace()
}

func firstLine(s string) string {
	line := strings.TrimSpace(s)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimLeft(line, "# ")
}
