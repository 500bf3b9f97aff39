package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var outputFormat string

// writeOutput renders v in the selected format. JSON is indented when
// writing to an interactive terminal.
func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatJSON, "":
		enc := json.NewEncoder(w)
		if isTerminal(w) {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (must be json or yaml)", format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
