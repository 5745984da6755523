package extract

import (
	"errors"
	"fmt"
)

// Config holds the caps and heuristic thresholds of the extraction pipeline.
// Every comparison is strict unless noted.
type Config struct {
	// Document caps
	MaxPages         int    // pages processed per document
	MaxImagePages    int    // images are only read on pages with index below this
	MaxImagesPerPage int    // image references considered per page, before filtering
	MaxTextLength    int    // rune cap of the final text
	TruncationNotice string // appended once when the cap is hit

	// Table classifier
	TableMarkers          []string
	NumericDigitThreshold int     // a line with more digits than this is numeric
	NumericMinLines       int     // numeric lines must exceed this count
	NumericLineRatio      float64 // and this share of all lines
	AlignmentTolerance    float64 // x0 values closer than this chain into one cluster
	MinClusterSize        int     // a cluster needs more members than this
	MinAlignedColumns     int     // significant clusters needed, inclusive

	// Column reconstructor
	HeadingKeywords []string
	SpaceWidth      float64 // points per padding space
	TabThreshold    int     // more spaces than this collapse into a tab
	MinTableLength  int
	MaxTableLength  int
	MinTableRows    int // non-empty lines must exceed this

	// Image text
	MinImageSize       int // width and height must both reach this
	ImageTableMarkers  []string
	MinImageTextLength int
}

// DefaultConfig returns the thresholds tuned for annual report style PDFs
func DefaultConfig() Config {
	return Config{
		MaxPages:         30,
		MaxImagePages:    10,
		MaxImagesPerPage: 3,
		MaxTextLength:    150000,
		TruncationNotice: "\n\n[Document truncated due to size limitations]",

		TableMarkers:          []string{"S.No.", "Sl.No.", "S. No.", "No.", "Total", "Particulars", "%"},
		NumericDigitThreshold: 5,
		NumericMinLines:       2,
		NumericLineRatio:      0.3,
		AlignmentTolerance:    5,
		MinClusterSize:        2,
		MinAlignedColumns:     3,

		HeadingKeywords: []string{"employees", "gender", "directors", "table", "distribution"},
		SpaceWidth:      4,
		TabThreshold:    6,
		MinTableLength:  20,
		MaxTableLength:  5000,
		MinTableRows:    2,

		MinImageSize:       100,
		ImageTableMarkers:  []string{"Total", "%", "Male", "Female"},
		MinImageTextLength: 20,
	}
}

// Validate checks that caps and thresholds are usable
func (c Config) Validate() error {
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive, got %d", c.MaxPages)
	}
	if c.MaxImagePages < 0 {
		return fmt.Errorf("max image pages cannot be negative, got %d", c.MaxImagePages)
	}
	if c.MaxImagesPerPage < 0 {
		return fmt.Errorf("max images per page cannot be negative, got %d", c.MaxImagesPerPage)
	}
	if c.MaxTextLength <= 0 {
		return fmt.Errorf("max text length must be positive, got %d", c.MaxTextLength)
	}
	if c.SpaceWidth <= 0 {
		return errors.New("space width must be positive")
	}
	if c.MinTableLength >= c.MaxTableLength {
		return fmt.Errorf("table length bounds are empty: %d..%d", c.MinTableLength, c.MaxTableLength)
	}
	if c.NumericLineRatio < 0 || c.NumericLineRatio > 1 {
		return fmt.Errorf("numeric line ratio must be within [0,1], got %g", c.NumericLineRatio)
	}
	return nil
}
