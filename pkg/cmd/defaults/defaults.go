package defaults

import (
	"fmt"
	"io"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/racecoach/pkg/config"
)

func NewDefaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "print the default coach configuration",
		Long: `Prints the "coach" section of the config file with all default values.
The output can be used as starting point for .rcoach.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Write(cmd.OutOrStdout(), config.DefaultCoachConfig())
		},
	}
}

// Write prints cfg as YAML using the keys of the config file
func Write(w io.Writer, cfg config.CoachConfig) error {
	section := map[string]any{}
	if err := mapstructure.Decode(cfg, &section); err != nil {
		return fmt.Errorf("convert config: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"coach": section}); err != nil {
		return err
	}
	return enc.Close()
}
