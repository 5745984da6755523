package pdf

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-qa/internal/qa"
)

// tablePDF renders one page holding a small employee table
func tablePDF(t testing.TB) []byte {
	t.Helper()

	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.Text(72, 60, "Employees by age")

	rows := [][]string{{"S.No.", "Name", "Age"}, {"1", "Alice", "30"}, {"2", "Bob", "25"}}
	for i, row := range rows {
		for j, cell := range row {
			doc.Text(72+float64(j)*120, 120+float64(i)*16, cell)
		}
	}

	var out bytes.Buffer
	require.NoError(t, doc.Output(&out))
	return out.Bytes()
}

func writeFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func newTestService(t testing.TB, dir string, asker Asker) *Service {
	t.Helper()

	opts := DefaultOptions(dir)
	opts.Workers = 2
	opts.Assistant = asker

	svc, err := NewService(opts)
	require.NoError(t, err)
	return svc
}

// recordingAsker answers with a fixed string and remembers what it was asked
type recordingAsker struct {
	mu       sync.Mutex
	answer   string
	text     string
	question string
	history  []qa.Turn
}

func (a *recordingAsker) Ask(_ context.Context, text, question string, history []qa.Turn) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.text, a.question, a.history = text, question, history
	return a.answer
}
