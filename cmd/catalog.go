package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the questionnaire catalog",
}

var catalogSectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "List sectors and subsectors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := initCatalog()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SECTOR\tSUBSECTOR\tQUESTIONS")
		for _, sector := range cat.ListSectors() {
			subs, err := cat.ListSubsectors(sector)
			if err != nil {
				return err
			}
			for _, sub := range subs {
				fmt.Fprintf(w, "%s\t%s\t%d\n", sector, sub, len(cat.QuestionsFor(sector, sub)))
			}
		}
		return w.Flush()
	},
}

var catalogQuestionsCmd = &cobra.Command{
	Use:   "questions <sector> <subsector>",
	Short: "List the question sequence for a sector/subsector pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := initCatalog()
		if err != nil {
			return err
		}

		questions := cat.QuestionsFor(args[0], args[1])
		if len(questions) == 0 {
			fmt.Printf("no questions for %s / %s\n", args[0], args[1])
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tID\tKIND\tREQUIRED\tPROMPT")
		for i, q := range questions {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", i+1, q.ID, q.Kind, q.Required(), q.Prompt)
		}
		return w.Flush()
	},
}

func init() {
	catalogCmd.AddCommand(catalogSectorsCmd)
	catalogCmd.AddCommand(catalogQuestionsCmd)
	rootCmd.AddCommand(catalogCmd)
}
