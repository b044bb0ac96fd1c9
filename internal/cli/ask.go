package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pdfchat/config"
	"pdfchat/internal/usecase"
)

var (
	askQuery       string
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a one-off question about indexed documents",
	Long: `Ask a single question and print the answer with its sources.

Examples:
  pdfchat ask -q "what was Q3 revenue?"
  pdfchat ask -q "summarize the findings" --show-context`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question to ask (required)")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the retrieved context")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	queryUC, cleanup, err := buildQueryUseCase(GetConfig())
	if err != nil {
		return err
	}
	defer cleanup()

	if askShowContext {
		return askWithContext(queryUC, askQuery)
	}

	resp := queryUC.ProcessQuery(askQuery)
	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(resp.Sources, ", "))
	}
	return nil
}

// askWithContext prints each retrieved passage before the answer.
func askWithContext(queryUC *usecase.QueryUseCase, query string) error {
	context, results, err := queryUC.RetrieveContext(query)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matching passages found.")
	}
	for i, r := range results {
		filename := r.Chunk.Metadata.Filename
		if filename == "" {
			filename = "unknown_file"
		}
		fmt.Printf("--- [%d] %s (similarity: %.3f) ---\n", i+1, filename, r.Similarity)
		fmt.Println(usecase.TruncateForDisplay(r.Chunk.Text, 500))
		fmt.Println()
	}

	answer, err := queryUC.GenerateAnswer(query, context)
	if err != nil {
		return fmt.Errorf("answer generation failed: %w", err)
	}
	fmt.Println(answer)
	if sources := usecase.FormatSources(results); len(sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(sources, ", "))
	}
	return nil
}

// buildQueryUseCase wires the full question answering pipeline from config.
func buildQueryUseCase(cfg *config.Config) (*usecase.QueryUseCase, closerFunc, error) {
	embedder, closeEmbedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := buildStore(cfg)
	if err != nil {
		closeEmbedder()
		return nil, nil, err
	}
	chat, err := buildLLM(cfg)
	if err != nil {
		closeEmbedder()
		return nil, nil, err
	}
	uc := usecase.NewQueryUseCase(embedder, st, chat, cfg.Retrieve.TopK, cfg.Chat.MaxContextLength)
	return uc, closeEmbedder, nil
}
