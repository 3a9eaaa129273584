package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"wellcoach_backend/internal/catalog"

	"github.com/spf13/cobra"
)

var catalogFile string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the training module catalog",
}

func catalogPath() (string, error) {
	if catalogFile != "" {
		return catalogFile, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Training.CatalogPath, nil
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules with section and exercise counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := catalogPath()
		if err != nil {
			return err
		}
		cat, err := catalog.Load(path)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tID\tTITLE\tSECTIONS\tEXERCISES\tREQUIRED")
		for _, m := range cat.Modules() {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%t\n", m.Number, m.ID, m.Title, m.TotalSections(), m.TotalExercises(), m.Required)
		}
		return w.Flush()
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the catalog and exit non-zero on errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := catalogPath()
		if err != nil {
			return err
		}
		cat, err := catalog.Load(path)
		if err != nil {
			return err
		}
		source := path
		if source == "" {
			source = "built-in catalog"
		}
		fmt.Printf("%s: %d modules OK\n", source, len(cat.Modules()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogValidateCmd)

	catalogCmd.PersistentFlags().StringVarP(&catalogFile, "file", "f", "", "catalog YAML file (defaults to training.catalog_path)")
}
