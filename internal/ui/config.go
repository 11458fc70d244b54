package ui

// DisplayConfig holds configuration for UI rendering
type DisplayConfig struct {
	// Truncation limits
	MaxTitleLength  int
	MaxPreviewLines int

	// Display lengths
	CommitHashDisplayLength int
	DefaultTerminalWidth    int

	// CollapseAfter is the number of uninteresting commits in a row the tree shows
	// before folding the rest into a single line.
	CollapseAfter int
}

// DefaultConfig returns the default display configuration
func DefaultConfig() DisplayConfig {
	return DisplayConfig{
		MaxTitleLength:  60,
		MaxPreviewLines: 10,

		CommitHashDisplayLength: 7,
		DefaultTerminalWidth:    120,

		CollapseAfter: 1,
	}
}

// Display is the display configuration in use. Tests override fields directly.
var Display = DefaultConfig()
