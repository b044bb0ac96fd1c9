package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"pdfchat/internal/adapter/chunker"
	"pdfchat/internal/adapter/extractor"
	"pdfchat/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path or glob>...",
	Short: "Index PDF documents into the vector store",
	Long: `Extract text from PDF documents, chunk it, generate embeddings, and store
the chunks in the vector store.

Examples:
  pdfchat ingest report.pdf
  pdfchat ingest "docs/**/*.pdf"
  pdfchat ingest a.pdf b.pdf c.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	files, err := expandPDFArgs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no PDF files matched %v", args)
	}

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

	chk, err := chunker.NewWindowChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	ingestUC := usecase.NewIngestUseCase(extractor.NewPDFExtractor(), chk, embedder, st)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	var (
		totalChunks int
		indexed     int
		failures    []string
	)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			bar.Add(1)
			continue
		}
		n, err := ingestUC.IngestPDF(data, filepath.Base(path))
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			bar.Add(1)
			continue
		}
		totalChunks += n
		indexed++
		bar.Add(1)
	}

	fmt.Printf("\nIngest complete:\n")
	fmt.Printf("  Documents indexed: %d\n", indexed)
	fmt.Printf("  Chunks stored:     %d\n", totalChunks)
	if len(failures) > 0 {
		fmt.Printf("\nFailures:\n")
		for _, f := range failures {
			fmt.Printf("  - %s\n", f)
		}
		return fmt.Errorf("%d of %d documents failed", len(failures), len(files))
	}
	return nil
}

// expandPDFArgs resolves each argument as a doublestar glob, falling back to
// a literal path when the pattern matches nothing. Non-PDF matches are
// filtered out.
func expandPDFArgs(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		for _, m := range matches {
			if !strings.EqualFold(filepath.Ext(m), ".pdf") {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files, nil
}
