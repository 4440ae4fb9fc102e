// Package report renders run statistics for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/bulkload/internal/domain"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", domain.ErrInvalidConfig, s)
	}
}

// view is the machine-readable report: the statistics plus derived values.
type view struct {
	domain.Statistics `yaml:",inline"`

	ElapsedSeconds float64 `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Throughput     float64 `json:"throughput" yaml:"throughput"`
}

func newView(s domain.Statistics) view {
	return view{
		Statistics:     s,
		ElapsedSeconds: s.Elapsed().Seconds(),
		Throughput:     s.Throughput(),
	}
}

// Render writes stats to w in the given format. Text output is styled when
// w is a terminal.
func Render(w io.Writer, stats domain.Statistics, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newView(stats))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newView(stats)); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		if isWriterTerminal(w) {
			return renderStyled(w, stats)
		}
		return renderPlain(w, stats)
	default:
		return fmt.Errorf("%w: unknown report format %q", domain.ErrInvalidConfig, format)
	}
}

// isWriterTerminal reports whether w is a terminal file.
func isWriterTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ResumeHint is the advice printed for a paused or interrupted run.
func ResumeHint(stats domain.Statistics) string {
	switch stats.Status {
	case domain.StatusPaused:
		return fmt.Sprintf("Run paused after a failed batch; state saved. Resume by re-running with --operation %s.", stats.Operation)
	case domain.StatusInterrupted:
		return fmt.Sprintf("Run interrupted; state saved. Re-run with --operation %s to resume.", stats.Operation)
	default:
		return ""
	}
}
