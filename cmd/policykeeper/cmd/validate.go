package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/solatis/policykeeper/internal/rules"
	"github.com/solatis/policykeeper/internal/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a case against a rule file offline",
	Long: `Validate evaluates flat case data against policy rules without a store or
text-generation service.

The rule file is a YAML or JSON list of {id, field, operator, value, description}.
The case file is a flat JSON object.

Example:
  policykeeper validate --rules rules.yaml --case case.json`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("rules", "", "rule file, YAML or JSON (required)")
	validateCmd.Flags().String("case", "", "case data JSON file (required)")
	validateCmd.Flags().String("format", "json", "output format (json, yaml)")
	_ = validateCmd.MarkFlagRequired("rules")
	_ = validateCmd.MarkFlagRequired("case")
}

func runValidate(cmd *cobra.Command, args []string) error {
	rulesFile, _ := cmd.Flags().GetString("rules")
	caseFile, _ := cmd.Flags().GetString("case")
	format, _ := cmd.Flags().GetString("format")

	policyRules, err := loadRules(rulesFile)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(caseFile)
	if err != nil {
		return fmt.Errorf("failed to read case data: %w", err)
	}
	caseData, err := types.ParseCaseData(raw)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), format, rules.Validate(policyRules, caseData))
}

// loadRules reads a YAML or JSON rule list. JSON is a subset of YAML, so a
// single decoder serves both.
func loadRules(path string) ([]types.PolicyRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	var policyRules []types.PolicyRule
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&policyRules); err != nil {
		return nil, fmt.Errorf("failed to parse rules %s: %w", path, err)
	}
	for i := range policyRules {
		if policyRules[i].ID == "" {
			policyRules[i].ID = fmt.Sprintf("rule-%d", i+1)
		}
		op, err := types.ParseOperator(string(policyRules[i].Operator))
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", policyRules[i].ID, err)
		}
		policyRules[i].Operator = op
	}
	if err := types.ValidateRules(policyRules); err != nil {
		return nil, err
	}
	return policyRules, nil
}
