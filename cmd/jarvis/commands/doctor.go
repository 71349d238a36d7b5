package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/config"
	"github.com/jholhewres/jarvis/pkg/jarvis/doctor"
)

// newDoctorCmd creates `jarvis doctor`, the local diagnostics run.
func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the local installation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			config.ResolveAPIKey(cfg, logger)

			failures := 0
			for _, check := range doctor.Run(cfg) {
				mark := "ok"
				if !check.OK {
					mark = "FAIL"
					failures++
				}
				fmt.Printf("[%s] %-20s %s\n", mark, check.Name, check.Detail)
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			fmt.Println("All checks passed.")
			return nil
		},
	}
}
