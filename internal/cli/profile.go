package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the learned player profile",
		Run:   runProfile,
	}

	RootCmd.AddCommand(cmd)
}

func runProfile(cmd *cobra.Command, args []string) {
	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p := openMemory(cmd.Context(), s).Profile()
	if formatFlag != "text" {
		printJSON(p)
		return
	}

	fmt.Printf("fights:       %d (player win rate %.0f%%)\n", p.TotalFights, p.WinRate*100)
	fmt.Printf("skill:        %.1f/10\n", p.SkillRating)
	fmt.Printf("aggression:   %.2f\n", p.AggressionRatio)
	fmt.Printf("blocking:     %.2f\n", p.BlockFrequency)
	fmt.Printf("range:        %s\n", p.PreferredRange)
	fmt.Printf("low health:   %s\n", p.LowHealthBehavior)
	fmt.Printf("when winning: %s\n", p.WinningBehavior)
	if len(p.TopPatterns) > 0 {
		fmt.Printf("patterns:     %s\n", strings.Join(p.TopPatterns, " | "))
	}
	for sp, n := range p.SpellUsage {
		fmt.Printf("spell:        %s x%d\n", sp, n)
	}
}
