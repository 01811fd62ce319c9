package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/duel-brain/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Feed match events into the player profile",
		Long:  "Record combat events, round results and match results from an external game. Each call persists immediately.",
	}

	event := &cobra.Command{
		Use:   "event",
		Short: "Record one combat event",
		Run:   runRecordEvent,
	}
	event.Flags().StringP("actor", "a", string(model.ActorPlayer), "Actor: player or ai")
	event.Flags().StringP("kind", "k", "", "Kind: attack, block, hit, spell, dodge (required)")
	event.Flags().String("detail", "", "Spell name for spell events")
	event.Flags().Float64("distance", -1, "Optional distance sample")
	event.MarkFlagRequired("kind")

	round := &cobra.Command{
		Use:   "round",
		Short: "Record the end of a round",
		Run:   runRecordRound,
	}
	round.Flags().Bool("won", false, "The player won the round")

	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Record the end of a match and fold it into the profile",
		Run:   runRecordMatch,
	}
	matchCmd.Flags().Bool("won", false, "The player won the match")
	matchCmd.Flags().StringP("tier", "t", string(model.TierAdaptive), "Difficulty the match was played at")

	cmd.AddCommand(event, round, matchCmd)
	RootCmd.AddCommand(cmd)
}

func runRecordEvent(cmd *cobra.Command, args []string) {
	actor, _ := cmd.Flags().GetString("actor")
	kind, _ := cmd.Flags().GetString("kind")
	detail, _ := cmd.Flags().GetString("detail")
	distance, _ := cmd.Flags().GetFloat64("distance")

	a := model.Actor(actor)
	if a != model.ActorPlayer && a != model.ActorAI {
		exitErr("record event", fmt.Errorf("unknown actor %q", actor))
	}
	k := model.EventKind(kind)
	if !model.ValidEventKinds[k] {
		exitErr("record event", fmt.Errorf("unknown kind %q", kind))
	}

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem := openMemory(cmd.Context(), s)
	mem.RecordEvent(a, k, detail)
	if distance >= 0 {
		mem.RecordDistance(distance)
	}
	mem.Save(cmd.Context())

	printJSON(mem.Record().CurrentSession)
}

func runRecordRound(cmd *cobra.Command, args []string) {
	won, _ := cmd.Flags().GetBool("won")

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem := openMemory(cmd.Context(), s)
	mem.RecordRoundEnd(cmd.Context(), won)

	cs := mem.Record().CurrentSession
	printJSON(map[string]int{"rounds": cs.Rounds, "roundsWon": cs.RoundsWon})
}

func runRecordMatch(cmd *cobra.Command, args []string) {
	won, _ := cmd.Flags().GetBool("won")
	tierName, _ := cmd.Flags().GetString("tier")

	t, err := model.ParseTier(tierName)
	if err != nil {
		exitErr("record match", err)
	}

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem := openMemory(cmd.Context(), s)
	printJSON(mem.RecordMatchEnd(cmd.Context(), won, t))
}
