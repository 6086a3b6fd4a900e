package protocol

import (
	"fmt"
	"io"
	"strings"

	"github.com/datazip-inc/tap-hubspot/config"
	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/spf13/cobra"
)

// aboutCmd prints the tap description; it needs no configuration
var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Print tap information and the settings schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAbout(cmd.OutOrStdout(), format)
	},
}

func runAbout(out io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", "json":
		return writeJSON(out, map[string]any{
			"name":         constants.TapName,
			"description":  constants.TapDescription,
			"version":      Version,
			"capabilities": constants.Capabilities,
			"settings":     config.JSONSchema(),
		})
	case "markdown":
		_, err := io.WriteString(out, aboutMarkdown())
		return err
	default:
		return fmt.Errorf("unsupported --format %s, expected json or markdown", format)
	}
}

func aboutMarkdown() string {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n%s\n\nVersion: %s\n\n", constants.TapName, constants.TapDescription, Version)

	md.WriteString("## Capabilities\n\n")
	for _, capability := range constants.Capabilities {
		fmt.Fprintf(&md, "* `%s`\n", capability)
	}

	md.WriteString("\n## Settings\n\n")
	md.WriteString("| Setting | Required | Default | Environment variable | Description |\n")
	md.WriteString("|:--------|:--------:|:-------:|:---------------------|:------------|\n")
	for _, setting := range config.Schema {
		required := "False"
		if setting.Required {
			required = "True"
		}
		defaultValue := "None"
		if setting.Default != nil {
			defaultValue = fmt.Sprint(setting.Default)
		}
		description := setting.Description
		if setting.Sensitive {
			description += " (secret)"
		}
		fmt.Fprintf(&md, "| %s | %s | %s | %s | %s |\n", setting.Name, required, defaultValue, setting.EnvVar(), description)
	}

	return md.String()
}
