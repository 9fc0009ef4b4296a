package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/presence/internal/client"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "Manage enrolled people on a running server",
}

var peopleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled people",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		people, err := client.New(serverURL).People(cmd.Context())
		if err != nil {
			return err
		}
		if len(people) == 0 {
			fmt.Println("No people enrolled.")
			return nil
		}
		for _, p := range people {
			fmt.Printf("%s\t%d embedding(s)\n", p.Name, p.EmbeddingCount)
		}
		return nil
	},
}

var peopleRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a person",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.New(serverURL).DeletePerson(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %q\n", args[0])
		return nil
	},
}

func init() {
	peopleCmd.AddCommand(peopleListCmd)
	peopleCmd.AddCommand(peopleRemoveCmd)
	rootCmd.AddCommand(peopleCmd)
}
