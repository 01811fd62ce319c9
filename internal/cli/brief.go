package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "brief",
		Short: "Print the player dossier sent to memory-enabled tiers",
		Run:   runBrief,
	}

	RootCmd.AddCommand(cmd)
}

func runBrief(cmd *cobra.Command, args []string) {
	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem := openMemory(cmd.Context(), s)
	brief := mem.BuildMemoryPrompt()
	if formatFlag == "text" {
		fmt.Println(brief)
		return
	}
	printJSON(map[string]string{"brief": brief})
}
