package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportOutput   string
	exportBourdieu bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a model as JSON for the web front-end",
	Long: `Writes the documents and topics of the selected model in the JSON format
read by the front-end. With --bourdieu the last projection is exported instead.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportBourdieu, "bourdieu", false, "export the Bourdieu projection")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) (err error) {
	if err := loadModel(cmd.Context()); err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		w = f
	}

	if err := modeler.Export(w, exportBourdieu); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if exportOutput != "" {
		cmd.Printf("Exported to %s\n", exportOutput)
	}
	return nil
}
