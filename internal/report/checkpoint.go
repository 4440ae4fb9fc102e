package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bft-labs/bulkload/internal/domain"
)

// RenderCheckpoint writes the saved resume state of operation to w.
// A nil checkpoint means the next run starts from the first record.
func RenderCheckpoint(w io.Writer, operation string, cp *domain.Checkpoint, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cp)
	case FormatYAML:
		if cp == nil {
			_, err := io.WriteString(w, "null\n")
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cp); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, checkpointText(operation, cp))
		return err
	default:
		return fmt.Errorf("%w: unknown report format %q", domain.ErrInvalidConfig, format)
	}
}

func checkpointText(operation string, cp *domain.Checkpoint) string {
	if cp == nil {
		return fmt.Sprintf("No checkpoint for operation %s; the next run starts from the first record.\n", operation)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %s\n", "Operation:", cp.Operation)
	fmt.Fprintf(&b, "%-20s %d\n", "Resume index:", cp.LastProcessedIndex)
	fmt.Fprintf(&b, "%-20s %d/%d\n", "Last batch:", cp.CurrentBatch, cp.TotalBatches)
	fmt.Fprintf(&b, "%-20s %s\n", "Updated:", cp.Timestamp.Format(time.RFC3339))
	return b.String()
}
