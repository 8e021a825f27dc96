package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/spf13/cobra"

	"github.com/deepxiv/deepxiv-go/agent"
	"github.com/deepxiv/deepxiv-go/llm"
	"github.com/deepxiv/deepxiv-go/memory"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a research question answered by an agent over arXiv papers",
	Long: `ask runs a planning loop: an LLM decides which papers to search, load,
and read, then produces a final answer grounded in what it read. The LLM
endpoint must be OpenAI-compatible; set OPENAI_API_KEY and optionally
OPENAI_BASE_URL for self-hosted gateways.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newReader(cmd)
		if err != nil {
			return err
		}

		model, _ := cmd.Flags().GetString("model")
		if model == "" {
			model = cfg.LLMModel
		}
		client := llm.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMBaseURL, model)

		maxCalls, _ := cmd.Flags().GetInt("max-llm-calls")
		maxTime, _ := cmd.Flags().GetDuration("max-time")
		maxTokens, _ := cmd.Flags().GetInt("max-tokens")
		temperature, _ := cmd.Flags().GetFloat64("temperature")
		stream, _ := cmd.Flags().GetBool("stream")

		builder := agent.NewAgentBuilder().
			WithReader(r).
			WithLLM(client).
			WithMaxLLMCalls(maxCalls).
			WithMaxTime(maxTime).
			WithMaxTokens(maxTokens).
			WithTemperature(temperature).
			WithStreaming(stream)

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID != "" && cfg.MongoURI != "" {
			mongoClient := odm.ProvideMongoClient()
			collection := odm.CollectionOf[memory.Transcript](mongoClient, "deepxiv")
			builder = builder.WithTranscriptManager(memory.NewTranscriptManager(collection, 20))
		}

		a := builder.Build()

		for _, id := range mustStringSlice(cmd, "papers") {
			if _, err := a.AddPaper(cmd.Context(), id); err != nil {
				return err
			}
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		reporter := &consoleReporter{verbose: verbose, stream: stream}

		reset, _ := cmd.Flags().GetBool("reset-papers")
		result, err := a.Execute(cmd.Context(), reporter, &agent.QueryRequest{
			Question:    args[0],
			ResetPapers: reset,
			SessionID:   sessionID,
		})
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		if stream {
			// Tokens were already printed as they arrived.
			fmt.Println()
		} else {
			fmt.Println(result.Answer)
		}
		fmt.Fprintf(os.Stderr, "\n[%s after %d rounds, %d papers, %s]\n",
			result.Termination, result.Rounds, result.PapersLoaded,
			time.Duration(result.ProcessingTime)*time.Millisecond)
		return nil
	},
}

// consoleReporter prints progress to stderr and, when streaming, answer
// tokens to stdout.
type consoleReporter struct {
	verbose bool
	stream  bool
}

func (c *consoleReporter) Send(event *agent.StreamChunk) error {
	switch {
	case event.Answer != nil && c.stream:
		fmt.Print(event.Answer.Content)
	case event.Progress != nil && c.verbose:
		fmt.Fprintf(os.Stderr, "[%s] %s\n", event.Progress.Stage, event.Progress.Message)
	case event.ToolResult != nil && c.verbose:
		status := "ok"
		if !event.ToolResult.OK {
			status = "failed"
		}
		fmt.Fprintf(os.Stderr, "[tool] %s: %s\n", event.ToolResult.ToolName, status)
	case event.Error != nil:
		fmt.Fprintf(os.Stderr, "[error] %s\n", event.Error.ErrorMessage)
	}
	return nil
}

func mustStringSlice(cmd *cobra.Command, name string) []string {
	values, _ := cmd.Flags().GetStringSlice(name)
	return values
}

func init() {
	askCmd.Flags().String("model", "gpt-4o", "model name for the LLM endpoint")
	askCmd.Flags().Int("max-llm-calls", 20, "maximum LLM calls per question")
	askCmd.Flags().Duration("max-time", 10*time.Minute, "wall-clock budget per question")
	askCmd.Flags().Int("max-tokens", 4000, "maximum tokens per LLM response")
	askCmd.Flags().Float64("temperature", 0.3, "sampling temperature")
	askCmd.Flags().Bool("stream", false, "stream answer tokens as they arrive")
	askCmd.Flags().StringSlice("papers", nil, "arXiv IDs to preload before planning")
	askCmd.Flags().Bool("reset-papers", false, "clear previously loaded papers before planning")
	askCmd.Flags().String("session", "", "session ID for transcript persistence (requires mongo_uri)")
	askCmd.Flags().Bool("verbose", false, "print planning progress to stderr")
	askCmd.Flags().Bool("json", false, "output the result as JSON")

	rootCmd.AddCommand(askCmd)
}
