package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/brightpath/onboard/internal/model"
)

var templatesFamily string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage operator-tuned prompt templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored prompt templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		templates, err := st.ListTemplates(ctx, model.Family(templatesFamily))
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			fmt.Println("no stored templates (pipeline uses compiled defaults)")
			return nil
		}

		for _, tpl := range templates {
			marker := " "
			if tpl.Active {
				marker = "*"
			}
			fmt.Printf("%s %-10s v%-3d %-30s %s\n", marker, tpl.Family, tpl.Version, tpl.Model, tpl.ID)
		}
		return nil
	},
}

var templatesSeedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load prompt templates from a YAML file",
	Long:  "Reads a YAML file of prompt templates and saves each as a new version. Templates marked active replace the current active template for their family.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		seeds, err := parseSeedFile(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		for _, seed := range seeds {
			saved, err := st.SaveTemplate(ctx, seed)
			if err != nil {
				return eris.Wrapf(err, "save template for %s", seed.Family)
			}
			zap.L().Info("template saved",
				zap.String("family", string(saved.Family)),
				zap.Int("version", saved.Version),
				zap.Bool("active", saved.Active),
			)
		}

		fmt.Printf("seeded %d templates\n", len(seeds))
		return nil
	},
}

type templateSeed struct {
	Family      string   `yaml:"family"`
	Instruction string   `yaml:"instruction"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int64    `yaml:"max_tokens"`
	Active      bool     `yaml:"active"`
}

type seedFile struct {
	Templates []templateSeed `yaml:"templates"`
}

// parseSeedFile reads and validates a template seed YAML file.
func parseSeedFile(path string) ([]model.PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	if len(f.Templates) == 0 {
		return nil, eris.Errorf("%s contains no templates", path)
	}

	out := make([]model.PromptTemplate, 0, len(f.Templates))
	for i, seed := range f.Templates {
		family := model.Family(seed.Family)
		if !family.Valid() {
			return nil, eris.Errorf("template %d: unknown family %q", i, seed.Family)
		}
		if seed.Instruction == "" {
			return nil, eris.Errorf("template %d: instruction is required", i)
		}
		out = append(out, model.PromptTemplate{
			Family:      family,
			Instruction: seed.Instruction,
			Model:       seed.Model,
			Temperature: seed.Temperature,
			MaxTokens:   seed.MaxTokens,
			Active:      seed.Active,
		})
	}
	return out, nil
}

func init() {
	templatesListCmd.Flags().StringVar(&templatesFamily, "family", "", "filter by session family")
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesSeedCmd)
	rootCmd.AddCommand(templatesCmd)
}
