package extract

import (
	"sort"
	"strings"
	"unicode"

	"github.com/a3tai/mcp-pdf-qa/internal/layout"
)

// Verdict reports which heuristic marked a block as a table
type Verdict string

const (
	VerdictNone      Verdict = "none"
	VerdictMarker    Verdict = "marker"
	VerdictNumeric   Verdict = "numeric"
	VerdictAlignment Verdict = "alignment"
)

// IsTable reports whether the verdict marks a table
func (v Verdict) IsTable() bool {
	return v != VerdictNone
}

// Classifier decides whether a layout block is tabular
type Classifier struct {
	config Config
}

// NewClassifier creates a classifier using the thresholds of config
func NewClassifier(config Config) *Classifier {
	return &Classifier{config: config}
}

// IsTable reports whether the block should be treated as a table
func (c *Classifier) IsTable(block layout.Block) bool {
	return c.Classify(block).IsTable()
}

// Classify runs the heuristics in order and returns the first that fires.
// Blocks with fewer than two lines are never tables.
func (c *Classifier) Classify(block layout.Block) Verdict {
	if len(block.Lines) < 2 {
		return VerdictNone
	}

	if c.hasMarker(block) {
		return VerdictMarker
	}
	if c.isNumericDense(block) {
		return VerdictNumeric
	}
	if c.hasAlignedColumns(block) {
		return VerdictAlignment
	}
	return VerdictNone
}

func (c *Classifier) hasMarker(block layout.Block) bool {
	if len(block.Lines) <= 2 {
		return false
	}

	lines := make([]string, len(block.Lines))
	for i, line := range block.Lines {
		lines[i] = line.Text()
	}
	text := strings.Join(lines, "\n")

	for _, marker := range c.config.TableMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func (c *Classifier) isNumericDense(block layout.Block) bool {
	numeric := 0
	for _, line := range block.Lines {
		text := line.Text()
		if countDigits(text) > c.config.NumericDigitThreshold || strings.Contains(text, "%") {
			numeric++
		}
	}

	if numeric <= c.config.NumericMinLines {
		return false
	}
	return float64(numeric)/float64(len(block.Lines)) > c.config.NumericLineRatio
}

func (c *Classifier) hasAlignedColumns(block layout.Block) bool {
	if len(block.Lines) <= 2 {
		return false
	}

	var starts []float64
	for _, line := range block.Lines {
		for _, span := range line.Spans {
			starts = append(starts, span.BBox.X0)
		}
	}
	if len(starts) == 0 {
		return false
	}

	columns := alignedColumns(starts, c.config.AlignmentTolerance, c.config.MinClusterSize)
	return len(columns) >= c.config.MinAlignedColumns
}

// alignedColumns chains sorted positions into clusters while successive
// values differ by less than tolerance, and returns the mean of every
// cluster with more than minSize members.
func alignedColumns(positions []float64, tolerance float64, minSize int) []float64 {
	sorted := make([]float64, len(positions))
	copy(sorted, positions)
	sort.Float64s(sorted)

	var columns []float64
	cluster := []float64{sorted[0]}

	closeCluster := func() {
		if len(cluster) > minSize {
			sum := 0.0
			for _, v := range cluster {
				sum += v
			}
			columns = append(columns, sum/float64(len(cluster)))
		}
	}

	for _, pos := range sorted[1:] {
		if pos-cluster[len(cluster)-1] < tolerance {
			cluster = append(cluster, pos)
			continue
		}
		closeCluster()
		cluster = []float64{pos}
	}
	closeCluster()

	return columns
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
