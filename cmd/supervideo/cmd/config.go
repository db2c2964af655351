package cmd

import (
	"encoding"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/supervideo/internal/config"
	"github.com/jmylchreest/supervideo/internal/observability"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing supervideo configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the default configuration values in YAML format.

This shows all available configuration options with their default values.
You can redirect this output to a file to create a configuration template:

  supervideo config dump > config.yaml

Configuration can be set via:
  - Config file (./config.yaml, ~/.config/supervideo/config.yaml, /etc/supervideo/config.yaml)
  - Environment variables (SUPERVIDEO_SERVER_PORT, SUPERVIDEO_DATABASE_DSN, etc.)
  - Command-line flags (for some options)

Environment variables use the SUPERVIDEO_ prefix and underscores for nesting.
Example: retention.max_age -> SUPERVIDEO_RETENTION_MAX_AGE

With --effective the merged configuration in use is printed instead, with
the database DSN redacted for network databases.`,
	Args: cobra.NoArgs,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)

	configDumpCmd.Flags().Bool("effective", false, "dump the merged configuration instead of the defaults")
}

var (
	durationType      = reflect.TypeOf(time.Duration(0))
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// toMap converts a config struct to a map keyed by mapstructure tags, with
// durations and sizes in their human-readable form.
func toMap(v any) map[string]any {
	val := reflect.Indirect(reflect.ValueOf(v))
	typ := val.Type()
	result := make(map[string]any, val.NumField())

	for i := range val.NumField() {
		field := val.Field(i)
		key := typ.Field(i).Tag.Get("mapstructure")
		if key == "" {
			key = typ.Field(i).Name
		}

		switch {
		case field.Type() == durationType:
			result[key] = time.Duration(field.Int()).String()
		case field.Type().Implements(textMarshalerType):
			text, _ := field.Interface().(encoding.TextMarshaler).MarshalText()
			result[key] = string(text)
		case field.Kind() == reflect.Struct:
			result[key] = toMap(field.Interface())
		default:
			result[key] = field.Interface()
		}
	}
	return result
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	effective, _ := cmd.Flags().GetBool("effective")

	var (
		cfg *config.Config
		err error
	)
	if effective {
		cfg, err = loadConfig()
	} else {
		v := viper.New()
		config.SetDefaults(v)
		cfg, err = config.FromViper(v)
	}
	if err != nil {
		return err
	}

	if effective && cfg.Database.Driver != "sqlite" {
		cfg.Database.DSN = observability.RedactedValue
	}

	return writeConfig(cmd.OutOrStdout(), cfg, effective)
}

func writeConfig(w io.Writer, cfg *config.Config, effective bool) error {
	yamlData, err := yaml.Marshal(toMap(cfg))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Fprintln(w, "# supervideo Configuration File")
	fmt.Fprintln(w, "# ==============================")
	fmt.Fprintln(w, "#")
	if effective {
		fmt.Fprintln(w, "# Values shown are the merged configuration in use.")
	} else {
		fmt.Fprintln(w, "# All values shown below are defaults.")
	}
	fmt.Fprintln(w, "# Duration format: 30s, 5m, 1h, 30d, 2w")
	fmt.Fprintln(w, "# Size format: 512KiB, 4MiB")
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "# Environment variable overrides:")
	fmt.Fprintln(w, "#   SUPERVIDEO_SERVER_HOST, SUPERVIDEO_SERVER_PORT")
	fmt.Fprintln(w, "#   SUPERVIDEO_DATABASE_DRIVER, SUPERVIDEO_DATABASE_DSN")
	fmt.Fprintln(w, "#   SUPERVIDEO_CLASSIFIER_STRICT, SUPERVIDEO_RETENTION_SCHEDULE")
	fmt.Fprintln(w, "#   etc.")
	fmt.Fprintln(w)
	_, err = w.Write(yamlData)
	return err
}
