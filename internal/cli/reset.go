package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/duel-brain/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget everything learned about the player",
		Long:  "Reset the player record to defaults. The old record stays in version history unless --purge is given.",
		Run:   runReset,
	}

	cmd.Flags().Bool("purge", false, "Delete every stored version instead of writing a fresh one")

	RootCmd.AddCommand(cmd)
}

func runReset(cmd *cobra.Command, args []string) {
	purge, _ := cmd.Flags().GetBool("purge")

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if purge {
		err := s.Rm(cmd.Context(), store.RmParams{Key: profileKey()})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			exitErr("reset", err)
		}
		fmt.Println(`{"ok":true,"purged":true}`)
		return
	}

	openMemory(cmd.Context(), s).Reset(cmd.Context())
	fmt.Println(`{"ok":true}`)
}
