package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <url...>",
	Short: "Delete files, their thumbnails and their records",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	if !mustGetBool(cmd, "yes") {
		fmt.Printf("Delete %d file(s)? [y/N]: ", len(args))
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Println("Aborted")
			return nil
		}
	}

	a, err := newApp(cmd.Context(), appOptions{blobs: true})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.deleter().Delete(cmd.Context(), args)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d file(s)\n", len(result.Deleted))
	for _, id := range result.Deleted {
		fmt.Printf("  %s\n", id)
	}
	printFailures(result.Failures)
	return nil
}
