package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brightpath/onboard/internal/model"
	"github.com/brightpath/onboard/internal/pipeline"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Score assembled Digital Employee profiles",
}

var profileScoreCmd = &cobra.Command{
	Use:   "score <profile.json>",
	Short: "Compute completeness and check the review gate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile(args[0])
		if err != nil {
			return err
		}

		score := pipeline.Completeness(*profile, pipeline.DefaultProfileSpec)
		gate := cfg.Pipeline.CompletenessGate

		fmt.Printf("Completeness:  %d/100\n", score)
		for _, sec := range profile.Sections {
			fmt.Printf("  %-18s %d fields populated\n", sec.Name, sec.Populated())
		}
		if pipeline.CanSubmit(score, gate) {
			fmt.Printf("Ready for review (gate %d)\n", gate)
			return nil
		}
		fmt.Printf("Below review gate (%d); profile can be saved as draft only\n", gate)
		return nil
	},
}

// loadProfile reads a profile JSON document from disk.
func loadProfile(path string) (*model.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	if len(profile.Sections) == 0 {
		return nil, eris.Errorf("%s contains no profile sections", path)
	}
	return &profile, nil
}

func init() {
	profileCmd.AddCommand(profileScoreCmd)
	rootCmd.AddCommand(profileCmd)
}
