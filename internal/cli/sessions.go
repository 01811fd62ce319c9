package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/duel-brain/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent match summaries, newest first",
		Run:   runSessions,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max sessions to show")

	RootCmd.AddCommand(cmd)
}

func runSessions(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	all := openMemory(cmd.Context(), s).Record().Sessions
	sessions := []model.SessionSummary{}
	for i := len(all) - 1; i >= 0 && len(sessions) < limit; i-- {
		sessions = append(sessions, all[i])
	}

	if formatFlag != "text" {
		printJSON(sessions)
		return
	}
	for _, ss := range sessions {
		fmt.Printf("%s  %-8s player %-4s  %d rounds  skill %.1f\n",
			ss.Date.Format("2006-01-02 15:04"), ss.Difficulty, ss.Result, ss.Rounds, ss.SkillRating)
		for _, a := range ss.Adaptations {
			fmt.Printf("    - %s\n", a)
		}
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions recorded")
	}
}
