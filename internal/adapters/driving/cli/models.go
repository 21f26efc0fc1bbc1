package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage saved models",
	RunE:  runModelsList,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved models, newest first",
	Args:  cobra.NoArgs,
	RunE:  runModelsList,
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsDelete,
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDeleteCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModelsList(cmd *cobra.Command, _ []string) error {
	if modeler == nil {
		return errors.New("modeling service not configured")
	}

	models, err := modeler.ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if len(models) == 0 {
		cmd.Println("No saved models. Run 'topicmap fit' to create one.")
		return nil
	}

	t := newTable([]string{"ID", "Created", "Documents", "Topics"}, 2, 3)
	for _, m := range models {
		t.Row(m.ID, m.CreatedAt.Local().Format(time.DateTime), fmt.Sprint(m.DocumentCount), fmt.Sprint(m.TopicCount))
	}
	cmd.Println(t.Render())
	return nil
}

func runModelsDelete(cmd *cobra.Command, args []string) error {
	if modeler == nil {
		return errors.New("modeling service not configured")
	}

	if err := modeler.DeleteModel(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted model %s\n", args[0])
	return nil
}
