package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"phi/internal/config"
)

func newDocumentsCmd(app *App) *cobra.Command {
	docs := &cobra.Command{
		Use:   "docs",
		Short: "Manage agent documents",
	}

	var (
		agentID    string
		sourceType string
	)
	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document to an agent's knowledge base",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject locally before any request goes out.
			if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
				return fmt.Errorf("no file selected: pass the document path to upload")
			}
			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			defer file.Close()

			doc, err := app.Client.UploadDocument(cmd.Context(), agentID, filepath.Base(path), file, sourceType)
			if err != nil {
				return err
			}
			fmt.Println(successText(fmt.Sprintf("Uploaded %s (%s)", doc.Name, doc.ID)))
			return nil
		},
	}
	upload.Flags().StringVar(&agentID, "agent", "", "agent id (required)")
	upload.Flags().StringVar(&sourceType, "source-type", "UPLOAD", "document source type")
	_ = upload.MarkFlagRequired("agent")

	var listAgentID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List an agent's documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.Client.ListDocuments(cmd.Context(), listAgentID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println(gray("No documents uploaded yet."))
				return nil
			}
			for _, doc := range items {
				fmt.Printf("%s  %s  %s\n", doc.ID, bold(doc.Name), gray(doc.SourceType))
			}
			return nil
		},
	}
	list.Flags().StringVar(&listAgentID, "agent", "", "agent id (required)")
	_ = list.MarkFlagRequired("agent")

	var (
		searchAgentID string
		topK          int
	)
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search an agent's documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			result, err := app.Client.SearchDocuments(cmd.Context(), searchAgentID, query, topK)
			if err != nil {
				return err
			}
			if len(result.Chunks) == 0 {
				fmt.Println(gray("No matching chunks."))
				return nil
			}
			for i, chunk := range result.Chunks {
				fmt.Printf("%s %s\n", bold(fmt.Sprintf("%d.", i+1)), chunk.ChunkText)
				fmt.Printf("   %s\n", gray("document "+chunk.DocumentID))
			}
			return nil
		},
	}
	search.Flags().StringVar(&searchAgentID, "agent", "", "agent id (required)")
	search.Flags().IntVar(&topK, "top-k", config.DefaultSearchTopK, "number of chunks to return")
	_ = search.MarkFlagRequired("agent")

	docs.AddCommand(upload, list, search)
	return docs
}
