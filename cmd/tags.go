package cmd

import (
	"fmt"

	"github.com/kozaktomas/bird-tagger/internal/tagging"
	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Add or remove species counts on stored files",
}

var tagsAddCmd = &cobra.Command{
	Use:   "add <url...>",
	Short: "Add species counts to files",
	Long: `Add species counts to files given by storage, thumbnail or HTTPS URL.

Example:
  bird-tagger tags add --tag crow,1 --tag owl,2 s3://bucket/images/a.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTags(cmd, args, tagging.OperationAdd)
	},
}

var tagsRemoveCmd = &cobra.Command{
	Use:   "remove <url...>",
	Short: "Remove species counts from files",
	Long: `Remove species counts from files. A species whose count drops to zero
is removed from the file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTags(cmd, args, tagging.OperationRemove)
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	tagsCmd.AddCommand(tagsAddCmd, tagsRemoveCmd)

	for _, c := range []*cobra.Command{tagsAddCmd, tagsRemoveCmd} {
		c.Flags().StringArray("tag", nil, "species,count pair (repeatable)")
		_ = c.MarkFlagRequired("tag")
	}
}

func runTags(cmd *cobra.Command, urls []string, op tagging.Operation) error {
	tags := mustGetStringArray(cmd, "tag")

	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.mutator().Apply(cmd.Context(), urls, op, tags)
	if err != nil {
		return err
	}

	fmt.Printf("Updated %d file(s)\n", len(result.Updated))
	for _, id := range result.Updated {
		fmt.Printf("  %s\n", id)
	}
	printFailures(result.Failures)
	return nil
}

func printFailures(failures tagging.Diagnostics) {
	if len(failures) == 0 {
		return
	}
	fmt.Printf("\nSkipped %d item(s):\n", len(failures))
	for _, f := range failures {
		fmt.Printf("  %s: %s\n", f.URL, f.Reason)
	}
}
