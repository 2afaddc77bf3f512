package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List ingested sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, closeStore, err := openService(cfg, true)
		if err != nil {
			return err
		}
		defer closeStore()

		sources, err := svc.ListSources(flagWorkspace)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			fmt.Println("No sources ingested.")
			return nil
		}
		for _, s := range sources {
			ws := s.Workspace
			if ws == "" {
				ws = "-"
			}
			fmt.Printf("%s  (%d chunks, %d bytes, workspace %s, %s)\n",
				s.Path, s.ChunkCount, s.SizeBytes, ws, s.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var sourcesDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete a source and all of its chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, closeStore, err := openService(cfg, true)
		if err != nil {
			return err
		}
		defer closeStore()

		deleted, err := svc.DeleteSource(args[0])
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Printf("No source at %s\n", args[0])
			return nil
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesDeleteCmd)
	rootCmd.AddCommand(sourcesCmd)
}
