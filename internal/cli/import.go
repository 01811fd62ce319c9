package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/duel-brain/internal/memory"
	"github.com/rcliao/duel-brain/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a player record from JSON",
		Long:  "Import a player record (stdin or file) in the format produced by export. Fields are validated and clamped; the result is stored as a new version.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	rec, err := memory.ParseRecord(data, time.Now())
	if err != nil {
		exitErr("parse record", err)
	}
	body, err := json.Marshal(rec)
	if err != nil {
		exitErr("encode record", err)
	}

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entry, err := s.Put(cmd.Context(), store.PutParams{Key: profileKey(), Body: body})
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"version":%d,"fights":%d,"sessions":%d}`+"\n",
		entry.Version, rec.Profile.TotalFights, len(rec.Sessions))
}
