package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/duel-brain/internal/store"
)

type exportedVersion struct {
	ID         string          `json:"id"`
	Version    int             `json:"version"`
	Supersedes string          `json:"supersedes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Record     json.RawMessage `json:"record"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the player record as JSON",
		Long:  "Export the current player record. With --history, export every stored version, newest first.",
		Run:   runExport,
	}

	cmd.Flags().Bool("history", false, "Export all stored versions")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	history, _ := cmd.Flags().GetBool("history")

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if !history {
		printJSON(openMemory(cmd.Context(), s).Record())
		return
	}

	entries, err := s.Get(cmd.Context(), store.GetParams{Key: profileKey(), History: true})
	if err != nil {
		exitErr("export", err)
	}
	out := make([]exportedVersion, 0, len(entries))
	for _, e := range entries {
		body := json.RawMessage(e.Body)
		if !json.Valid(body) {
			body = json.RawMessage("null")
		}
		out = append(out, exportedVersion{
			ID:         e.ID,
			Version:    e.Version,
			Supersedes: e.Supersedes,
			CreatedAt:  e.CreatedAt,
			Record:     body,
		})
	}
	printJSON(out)
}
