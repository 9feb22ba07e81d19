// cmd/tools/intent-probe/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"support-workers/internal/chatbot/intent"
	"support-workers/internal/chatbot/knowledge"
	"support-workers/internal/chatbot/textnorm"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	validateCmd.SetOutput(out)
	validatePath := validateCmd.String("catalog", "", "Path to catalog YAML (empty uses the built-in catalog)")

	explainCmd := flag.NewFlagSet("explain", flag.ContinueOnError)
	explainCmd.SetOutput(out)
	explainPath := explainCmd.String("catalog", "", "Path to catalog YAML (empty uses the built-in catalog)")

	if len(args) < 1 {
		help(out)
		return 1
	}

	switch args[0] {
	case "validate":
		if err := validateCmd.Parse(args[1:]); err != nil {
			return 1
		}
		catalog, err := knowledge.Load(*validatePath)
		if err != nil {
			fmt.Fprintf(out, "Catalog validation failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "Catalog validation passed: %d topics, fallback %q.\n", catalog.Len(), catalog.Fallback().ID)
		return 0

	case "explain":
		if err := explainCmd.Parse(args[1:]); err != nil {
			return 1
		}
		utterance := strings.Join(explainCmd.Args(), " ")
		if strings.TrimSpace(utterance) == "" {
			fmt.Fprintln(out, "Error: an utterance is required for explain.")
			explainCmd.Usage()
			return 1
		}
		catalog, err := knowledge.Load(*explainPath)
		if err != nil {
			fmt.Fprintf(out, "Error loading catalog: %v\n", err)
			return 1
		}
		explain(out, catalog, utterance)
		return 0

	case "help":
		help(out)
		return 0

	default:
		help(out)
		return 1
	}
}

func explain(out io.Writer, catalog *knowledge.Catalog, utterance string) {
	fmt.Fprintf(out, "Tokens: %s\n", strings.Join(textnorm.Tokens(utterance), " | "))

	ranked := intent.Rank(utterance, catalog)
	if len(ranked) == 0 {
		fmt.Fprintln(out, "No topic scored.")
	}
	for i, r := range ranked {
		fmt.Fprintf(out, "%2d. %-20s %d\n", i+1, r.TopicID, r.Score)
	}

	result := intent.Resolve(utterance, catalog)
	fmt.Fprintf(out, "Resolved: %s (%s, score %d)\n", result.Topic.ID, result.Kind, result.Score)
}

func help(out io.Writer) {
	fmt.Fprintln(out, "Usage: intent-probe <command> [options]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  validate  Parse and validate a knowledge catalog")
	fmt.Fprintln(out, "    -catalog string  Path to catalog YAML")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "  explain   Show how an utterance is scored against every topic")
	fmt.Fprintln(out, "    -catalog string  Path to catalog YAML")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  intent-probe validate -catalog configs/catalog.yaml")
	fmt.Fprintln(out, "  intent-probe explain \"nao consigo fazer upload\"")
}
