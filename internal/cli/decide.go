package cli

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/duel-brain/internal/llm"
	"github.com/rcliao/duel-brain/internal/model"
	"github.com/rcliao/duel-brain/internal/offline"
	"github.com/rcliao/duel-brain/internal/scheduler"
)

func init() {
	cmd := &cobra.Command{
		Use:   "decide [snapshot-json]",
		Short: "Make one decision for a snapshot",
		Long:  "Read a snapshot as JSON (positional arg or stdin) and print the decision the given tier would make.",
		Run:   runDecide,
	}

	cmd.Flags().StringP("tier", "t", string(model.TierMedium), "Difficulty tier: easy, medium, hard, adaptive")
	cmd.Flags().Bool("offline", false, "Never call the AI server")
	cmd.Flags().Int64("seed", 0, "Seed for the offline engine (default: time based)")

	RootCmd.AddCommand(cmd)
}

func runDecide(cmd *cobra.Command, args []string) {
	tierName, _ := cmd.Flags().GetString("tier")
	offlineOnly, _ := cmd.Flags().GetBool("offline")
	seed, _ := cmd.Flags().GetInt64("seed")

	t, err := model.ParseTier(tierName)
	if err != nil {
		exitErr("decide", err)
	}

	var raw []byte
	if len(args) > 0 {
		raw = []byte(strings.Join(args, " "))
	} else {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		exitErr("parse snapshot", err)
	}
	snap = model.NewSnapshot(snap)

	var client llm.Client
	if !offlineOnly {
		client, err = llm.NewFromConfig(cfg)
		if err != nil {
			exitErr("ai client", err)
		}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	opts := scheduler.Options{
		Model:   aiModel(),
		Offline: offline.New(seed),
		Logger:  newLogger(),
	}
	if t == model.TierAdaptive {
		mem, closeStore := openGameplayMemory(cmd.Context(), opts.Logger)
		defer closeStore()
		opts.Memory = mem
	}

	d := scheduler.New(client, opts).GetDecision(cmd.Context(), snap, t)
	if formatFlag == "text" {
		os.Stdout.WriteString(d.String() + "\n")
		return
	}
	printJSON(d)
}
