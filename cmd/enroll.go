package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/okian/presence/internal/client"
)

// enrollBatchSize uploads images one request at a time so the progress bar
// tracks real work and one bad file cannot fail the whole batch.
const enrollBatchSize = 1

var enrollCmd = &cobra.Command{
	Use:   "enroll <name> <image>...",
	Short: "Enroll a person from image files",
	Long: `Enroll a person on a running server by uploading one or more face
images. Images that yield no usable face are reported individually; the
person is created as long as at least one image is usable.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := args[0]
	paths := args[1:]
	c := client.New(serverURL)

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Uploading images"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	var added, total int
	var failures []string
	for i := 0; i < len(paths); i += enrollBatchSize {
		end := i + enrollBatchSize
		if end > len(paths) {
			end = len(paths)
		}

		summary, err := c.AddPerson(cmd.Context(), name, paths[i:end])
		_ = bar.Add(end - i)
		if err != nil && len(summary.Failures) == 0 {
			return fmt.Errorf("enrolling %s: %w", name, err)
		}

		added += summary.EmbeddingsAdded
		if summary.TotalEmbeddings > total {
			total = summary.TotalEmbeddings
		}
		for _, f := range summary.Failures {
			failures = append(failures, fmt.Sprintf("%s: %s", f.Item, f.Reason))
		}
	}
	fmt.Println()

	fmt.Printf("Enrolled %q: %d embeddings added, %d total\n", name, added, total)
	if len(failures) > 0 {
		fmt.Printf("Rejected %d image(s):\n", len(failures))
		for _, f := range failures {
			fmt.Printf("  - %s\n", f)
		}
	}
	if added == 0 {
		return fmt.Errorf("no image yielded a usable face for %q", name)
	}
	return nil
}
