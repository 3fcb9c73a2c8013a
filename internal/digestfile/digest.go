package digestfile

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DigestWriter appends flushed batches to per-project, per-day markdown
// files. Digest files are write-once-per-flush side effects: never rewritten,
// never read back.
type DigestWriter struct {
	root string
}

func NewDigestWriter(root string) *DigestWriter {
	return &DigestWriter{root: root}
}

// SummarizeEvent renders one digest line. Only payload.file and payload.title
// participate; every other payload field is opaque cargo.
func SummarizeEvent(event Event) string {
	details := make([]string, 0, 2)
	if file := toString(event.Payload["file"]); file != "" {
		details = append(details, file)
	}
	if title := toString(event.Payload["title"]); title != "" {
		details = append(details, title)
	}
	line := "- " + event.EventType
	if len(details) > 0 {
		line += ": " + strings.Join(details, ", ")
	}
	return line
}

// Append writes one newline-terminated line per event to the digest file for
// (projectID, day in UTC), creating the file and project directory if absent.
func (w *DigestWriter) Append(projectID string, day time.Time, batch []Event) error {
	if len(batch) == 0 {
		return nil
	}
	dir := filepath.Join(w.root, projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	lines := make([]string, 0, len(batch))
	for _, event := range batch {
		lines = append(lines, SummarizeEvent(event))
	}
	name := day.UTC().Format("2006-01-02") + ".md"
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, writeErr := file.WriteString(strings.Join(lines, "\n") + "\n")
	closeErr := file.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}
