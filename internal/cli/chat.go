package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pdfchat/internal/adapter/chunker"
	"pdfchat/internal/adapter/extractor"
	"pdfchat/internal/session"
	"pdfchat/internal/tui"
	"pdfchat/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Open a terminal chat interface over the indexed documents. Each question
is answered from retrieved context with its sources listed. Documents can
be indexed mid-session with /ingest <path>.

Example:
  pdfchat chat`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	embedder, closeEmbedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	defer closeEmbedder()

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}
	chat, err := buildLLM(cfg)
	if err != nil {
		return err
	}
	chk, err := chunker.NewWindowChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	queryUC := usecase.NewQueryUseCase(embedder, st, chat, cfg.Retrieve.TopK, cfg.Chat.MaxContextLength)
	ingestUC := usecase.NewIngestUseCase(extractor.NewPDFExtractor(), chk, embedder, st)

	model := tui.New(queryUC, ingestUC, session.New())
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}
	return nil
}
