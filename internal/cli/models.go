package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/duel-brain/internal/llm"
)

func init() {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models on the configured AI server and show which one would be used",
		Run:   runModels,
	}

	RootCmd.AddCommand(cmd)
}

func runModels(cmd *cobra.Command, args []string) {
	client, err := llm.NewFromConfig(cfg)
	if err != nil {
		exitErr("ai client", err)
	}
	if client == nil {
		exitErr("models", errors.New("no AI provider configured (set DUEL_AI_PROVIDER)"))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.AITimeout)
	defer cancel()
	models, err := client.ListModels(ctx)
	if err != nil {
		exitErr("list models", err)
	}

	selected := cfg.AIModel
	if selected == "" {
		selected, _ = llm.PickModel(models)
	}

	if formatFlag == "text" {
		for _, m := range models {
			mark := " "
			if m.ID == selected {
				mark = "*"
			}
			fmt.Printf("%s %s (chat: %t)\n", mark, m.ID, m.Chat)
		}
		return
	}
	printJSON(map[string]any{"models": models, "selected": selected})
}
