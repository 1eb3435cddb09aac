package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the threshold above which the findings table narrows
	// to leave more room for the box preview.
	LayoutWideWidth = 160
)

// LogTailLimit is the number of log lines kept for the logs view.
const LogTailLimit = 500
