// Package main implements jsonschemacheck, a command-line JSON Schema
// validator built on the jsonschema Engine, grounded on
// speakeasy-api/openapi's openapi/cmd validate-command layout (a cobra
// Command with Args/RunE wrapping one focused operation).
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/schemagraph/jsonschema"
	"github.com/schemagraph/jsonschema/internal/evaluate"
	"github.com/schemagraph/jsonschema/jsonvalue"
)

var (
	outputFlag string
)

var rootCmd = &cobra.Command{
	Use:   "jsonschemacheck <schema.json> <instance.json>",
	Short: "Validate a JSON document against a JSON Schema",
	Long: `jsonschemacheck compiles a JSON Schema document and evaluates a JSON
instance document against it, reporting whether the instance is valid and,
if not, where and why it failed.`,
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

func init() {
	rootCmd.Flags().StringVar(&outputFlag, "output", "basic", "report detail: flag, basic, detailed, or verbose")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func outputFor(name string) (evaluate.Output, error) {
	switch name {
	case "flag":
		return evaluate.Flag, nil
	case "basic":
		return evaluate.Basic, nil
	case "detailed":
		return evaluate.Detailed, nil
	case "verbose":
		return evaluate.Verbose, nil
	default:
		return 0, fmt.Errorf("unknown --output %q (want flag, basic, detailed, or verbose)", name)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	output, err := outputFor(outputFlag)
	if err != nil {
		return err
	}

	schemaPath := filepath.Clean(args[0])
	instancePath := filepath.Clean(args[1])

	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("reading schema %s: %w", schemaPath, err)
	}
	instanceData, err := os.ReadFile(instancePath)
	if err != nil {
		return fmt.Errorf("reading instance %s: %w", instancePath, err)
	}
	instance, err := jsonvalue.Decode(instanceData)
	if err != nil {
		return fmt.Errorf("parsing instance %s: %w", instancePath, err)
	}

	engine, err := jsonschema.New()
	if err != nil {
		return fmt.Errorf("constructing engine: %w", err)
	}

	schemaURI := "file://" + schemaPath
	key, err := engine.CompileBytes(ctx, schemaURI, schemaData)
	if err != nil {
		return fmt.Errorf("compiling schema %s: %w", schemaPath, err)
	}

	report, err := engine.Evaluate(key, instance, output)
	if err != nil {
		return fmt.Errorf("evaluating %s: %w", instancePath, err)
	}

	if report.IsValid() {
		fmt.Printf("✅ %s is valid against %s\n", instancePath, schemaPath)
		return nil
	}

	fmt.Printf("❌ %s is invalid against %s\n\n", instancePath, schemaPath)
	for loc, msg := range report.GetErrors() {
		if loc == "" {
			loc = "(root)"
		}
		fmt.Printf("  %s: %s\n", loc, msg)
	}

	return errors.New("instance failed schema validation")
}
