package cmd

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/policykeeper/internal/generate"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a workflow, decision tree and checklist without storing a policy",
	Long: `Generate runs the policy generation pipeline once and prints the result.

Example:
  policykeeper generate --title "Housing grant" --text-file policy.txt
  policykeeper generate --title "Housing grant" --pdf policy.pdf --format yaml`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().String("title", "", "policy title (required)")
	generateCmd.Flags().String("text-file", "", "file containing the policy text")
	generateCmd.Flags().String("pdf", "", "policy PDF document")
	generateCmd.Flags().String("format", "json", "output format (json, yaml)")
	_ = generateCmd.MarkFlagRequired("title")
	generateCmd.MarkFlagsOneRequired("text-file", "pdf")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	textFile, _ := cmd.Flags().GetString("text-file")
	pdfFile, _ := cmd.Flags().GetString("pdf")
	format, _ := cmd.Flags().GetString("format")

	in := generate.Input{Title: title}
	if textFile != "" {
		text, err := os.ReadFile(textFile)
		if err != nil {
			return fmt.Errorf("failed to read policy text: %w", err)
		}
		in.PolicyText = string(text)
	}
	if pdfFile != "" {
		pdf, err := os.ReadFile(pdfFile)
		if err != nil {
			return fmt.Errorf("failed to read policy document: %w", err)
		}
		in.PDFBase64 = base64.StdEncoding.EncodeToString(pdf)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newLLMClient(cfg.LLM)
	if err != nil {
		return err
	}

	out, err := generate.New(client, logger).Generate(cmd.Context(), in)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), format, out)
}
