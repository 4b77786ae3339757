package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/regtime/regtime/internal/localstore"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// openStore opens the configured local store. When it cannot be opened the
// CLI keeps going on an in-memory store, so preferences simply don't persist.
func openStore(w io.Writer) localstore.Store {
	store, err := localstore.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		fmt.Fprintln(w, warningMessage(fmt.Sprintf("local store unavailable, using memory: %v", err)))
		return localstore.NewMemory()
	}
	return store
}
