// Package corpus serializes finished dialog corpora: the canonical JSON
// format, the human-readable plain-text format, and an optional SQLite sink.
package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"simdial/internal/generator"
)

// WriteJSON writes the corpus as {"dialogs": [...], "meta": <domain spec>}.
func WriteJSON(w io.Writer, c *generator.Corpus) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"dialogs": c.Dialogs,
		"meta":    c.Spec,
	})
}

// WriteJSONFile writes the JSON corpus to a file.
func WriteJSONFile(path string, c *generator.Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}
	defer f.Close()
	if err := WriteJSON(f, c); err != nil {
		return fmt.Errorf("write corpus %s: %w", path, err)
	}
	return f.Close()
}

// WriteText writes the plain-text rendition, one "## DIALOG k ##" block per
// session with SYS/USR lines.
func WriteText(w io.Writer, c *generator.Corpus) error {
	for i, d := range c.Dialogs {
		if _, err := fmt.Fprintf(w, "## DIALOG %d ##\n", i); err != nil {
			return err
		}
		for _, t := range d {
			var err error
			if t.Speaker == generator.SpeakerUsr {
				_, err = fmt.Fprintf(w, "%s(%f)-> %s\n", t.Speaker, t.Conf, t.DumpString())
			} else {
				_, err = fmt.Fprintf(w, "%s -> %s\n", t.Speaker, t.DumpString())
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteTextFile writes the plain-text corpus to a file.
func WriteTextFile(path string, c *generator.Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}
	defer f.Close()
	if err := WriteText(f, c); err != nil {
		return fmt.Errorf("write corpus %s: %w", path, err)
	}
	return f.Close()
}
