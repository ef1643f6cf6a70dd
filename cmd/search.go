package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored media",
}

var searchTagsCmd = &cobra.Command{
	Use:   "tags <species[,count]...>",
	Short: "Find files with at least count detections of every species",
	Long: `Find files that contain at least the given number of every listed species.
A missing count means 1.

Example:
  bird-tagger search tags crow,3 pigeon`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchTags,
}

var searchSpeciesCmd = &cobra.Command{
	Use:   "species <species>",
	Short: "Find files containing a species",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchSpecies,
}

var searchThumbnailCmd = &cobra.Command{
	Use:   "thumbnail <thumbnail-url>",
	Short: "Print the original file location for a thumbnail",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchThumbnail,
}

var searchFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Find files containing every species detected in a local file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchFile,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchTagsCmd, searchSpeciesCmd, searchThumbnailCmd, searchFileCmd)

	searchFileCmd.Flags().Float64("confidence", 0, "Minimum detection confidence (default from CONTENT_SEARCH_MIN_CONFIDENCE)")
}

// parseTagArgs parses species[,count] arguments; the count defaults to 1.
func parseTagArgs(args []string) (map[string]int64, error) {
	out := make(map[string]int64, len(args))
	for _, arg := range args {
		species, rawCount, hasCount := strings.Cut(arg, ",")
		count := int64(1)
		if hasCount {
			n, err := strconv.ParseInt(strings.TrimSpace(rawCount), 10, 64)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("%w: invalid count in %q", asset.ErrValidation, arg)
			}
			count = n
		}
		out[species] = count
	}
	return out, nil
}

func printLinks(links []string) {
	if len(links) == 0 {
		fmt.Println("No matching files")
		return
	}
	for _, l := range links {
		fmt.Println(l)
	}
	fmt.Printf("\n%d file(s)\n", len(links))
}

func runSearchTags(cmd *cobra.Command, args []string) error {
	requirements, err := parseTagArgs(args)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	links, err := a.engine().SearchByTags(cmd.Context(), requirements)
	if err != nil {
		return err
	}
	printLinks(links)
	return nil
}

func runSearchSpecies(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	links, err := a.engine().SearchBySpecies(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printLinks(links)
	return nil
}

func runSearchThumbnail(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	original, err := a.engine().ResolveThumbnail(cmd.Context(), args[0])
	if errors.Is(err, asset.ErrNotFound) {
		return fmt.Errorf("no file found for thumbnail %s", args[0])
	}
	if err != nil {
		return err
	}
	fmt.Println(original)
	fmt.Println(a.locator.HTTPS(original))
	return nil
}

func runSearchFile(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	a, err := newApp(cmd.Context(), appOptions{detector: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if c := mustGetFloat64(cmd, "confidence"); c > 0 {
		a.cfg.Detector.ContentSearchConfidence = c
	}

	result, err := a.engine().SearchByContent(cmd.Context(), args[0], data)
	if err != nil {
		return err
	}
	if result.NoDetections {
		fmt.Println("No birds detected in the file")
		return nil
	}
	fmt.Printf("Detected: %s\n\n", strings.Join(result.Species, ", "))
	printLinks(result.Links)
	return nil
}
