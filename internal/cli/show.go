package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <chunk-id>",
	Short: "Show a stored chunk by id",
	Long: `Fetch a single chunk from the vector store and print its text and
metadata. Useful for inspecting what a cited source actually contains.

Example:
  pdfchat show 4f07e7a2-93c8-4e0f-9b3b-2a1f6f7d9c11`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	st, err := buildStore(GetConfig())
	if err != nil {
		return err
	}

	chunk, found, err := st.GetByID(args[0])
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	if !found {
		return fmt.Errorf("no chunk with id %s", args[0])
	}

	fmt.Printf("ID:       %s\n", chunk.ID)
	fmt.Printf("File:     %s\n", chunk.Metadata.Filename)
	fmt.Printf("Source:   %s\n", chunk.Metadata.Source)
	fmt.Printf("Chunk:    %d (chars %d-%d)\n",
		chunk.Metadata.ChunkIndex, chunk.Metadata.CharStart, chunk.Metadata.CharEnd)
	fmt.Printf("\n%s\n", chunk.Text)
	return nil
}
