package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/thecodereport/tcdr/internal/config"
	"github.com/thecodereport/tcdr/internal/constants"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a tcdr configuration file",
		Long: `Generate a documented tcdr configuration file with sensible defaults.

By default, creates tcdr.yaml in the current directory with full
documentation. Use --interactive for a guided setup wizard.

Examples:
  # Create tcdr.yaml in current directory
  tcdr init

  # Custom output path
  tcdr init --config ci/tcdr.yaml

  # Overwrite existing file
  tcdr init --force

  # Generate smaller config with essential options only
  tcdr init --minimal

  # Pick the project layout and coverage target
  tcdr init --project solution --strictness strict

  # Interactive setup wizard
  tcdr init --interactive
  tcdr init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName,
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().Bool("minimal", false,
		"Generate minimal config with essential options only")
	cmd.Flags().String("project", string(config.ProjectTypeDotnet),
		"Project type: dotnet, solution, custom")
	cmd.Flags().String("strictness", string(config.StrictnessStandard),
		"Coverage target: relaxed, standard, strict")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("interactive")
	projectFlag, _ := cmd.Flags().GetString("project")
	strictnessFlag, _ := cmd.Flags().GetString("strictness")

	projectType := config.ProjectType(projectFlag)
	if _, ok := config.GetProjectPresets()[projectType]; !ok {
		return fmt.Errorf("unknown project type %q (must be dotnet, solution or custom)", projectFlag)
	}
	strictness := config.Strictness(strictnessFlag)
	if _, ok := config.GetStrictnessPresets()[strictness]; !ok {
		return fmt.Errorf("unknown strictness %q (must be relaxed, standard or strict)", strictnessFlag)
	}

	if interactive {
		var err error
		projectType, strictness, configPath, err = runInteractiveSetup(configPath)
		if err != nil {
			return err
		}
	}

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
		}
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	var content string
	if minimal {
		content = config.GetMinimalConfigTemplate()
	} else {
		content = config.GetFullConfigTemplate(projectType, strictness)
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", displayPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nRun 'tcdr run' to collect coverage, then 'tcdr serve' to browse it.")

	return nil
}

func runInteractiveSetup(defaultConfigPath string) (config.ProjectType, config.Strictness, string, error) {
	fmt.Println()
	fmt.Println("tcdr Configuration Setup")
	fmt.Println("========================")
	fmt.Println()

	presets := config.GetProjectPresets()
	projectTypes := []struct {
		Label       string
		Description string
		Value       config.ProjectType
	}{
		{"Single test project", presets[config.ProjectTypeDotnet].Description, config.ProjectTypeDotnet},
		{"Solution", presets[config.ProjectTypeSolution].Description, config.ProjectTypeSolution},
		{"Custom command", presets[config.ProjectTypeCustom].Description, config.ProjectTypeCustom},
	}

	projectTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	projectPrompt := promptui.Select{
		Label:     "How are the tests laid out?",
		Items:     projectTypes,
		Templates: projectTemplates,
	}

	projectIdx, _, err := projectPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("project selection cancelled: %w", err)
	}
	selectedProject := projectTypes[projectIdx].Value

	fmt.Println()

	levels := config.GetStrictnessPresets()
	strictnessLevels := []struct {
		Label       string
		Description string
		Value       config.Strictness
	}{
		{"Standard (recommended)", levels[config.StrictnessStandard].Description, config.StrictnessStandard},
		{"Relaxed", levels[config.StrictnessRelaxed].Description, config.StrictnessRelaxed},
		{"Strict", levels[config.StrictnessStrict].Description, config.StrictnessStrict},
	}

	strictnessTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	strictnessPrompt := promptui.Select{
		Label:     "What line coverage should CI enforce?",
		Items:     strictnessLevels,
		Templates: strictnessTemplates,
	}

	strictnessIdx, _, err := strictnessPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("strictness selection cancelled: %w", err)
	}
	selectedStrictness := strictnessLevels[strictnessIdx].Value

	fmt.Println()

	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaultConfigPath,
	}

	outputPath, err := outputPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("output path input cancelled: %w", err)
	}

	if outputPath == "" {
		outputPath = defaultConfigPath
	}

	fmt.Println()
	fmt.Printf("Creating %s... ", outputPath)

	return selectedProject, selectedStrictness, outputPath, nil
}
