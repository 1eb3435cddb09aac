package studio

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

const studioTimestampLayout = "2006-01-02 15:04:05"

// Health mirrors /api/health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// OK reports whether the backend considers itself healthy.
func (h Health) OK() bool {
	switch strings.ToLower(strings.TrimSpace(h.Status)) {
	case "ok", "healthy", "up":
		return true
	default:
		return false
	}
}

// Project is a creative-asset workflow project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (p Project) ParsedUpdatedAt() time.Time {
	return parseTime(p.UpdatedAt)
}

// Task is a unit of work inside a project.
type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Assignee    string    `json:"assignee"`
	DueDate     string    `json:"due_date"`
	Subtasks    []Subtask `json:"subtasks"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

// Subtask is a checklist item under a Task.
type Subtask struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Done reports whether the subtask is complete.
func (s Subtask) Done() bool {
	switch strings.ToLower(strings.TrimSpace(s.Status)) {
	case "done", "completed", "complete":
		return true
	default:
		return false
	}
}

// Progress returns completed and total subtask counts.
func (t Task) Progress() (done, total int) {
	for _, sub := range t.Subtasks {
		if sub.Done() {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// ParsedDueDate returns the parsed DueDate timestamp.
func (t Task) ParsedDueDate() time.Time {
	return parseTime(t.DueDate)
}

// Character is a character reference sheet used by reviewers.
type Character struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Tags        []string `json:"tags"`
}

// Finding is an AI review finding attached to an asset.
type Finding struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	TaskID      string          `json:"task_id"`
	AssetName   string          `json:"asset_name"`
	CharacterID string          `json:"character_id"`
	Category    string          `json:"category"`
	Severity    string          `json:"severity"`
	Message     string          `json:"message"`
	Status      string          `json:"status"`
	Confidence  float64         `json:"confidence"`
	Box         *BoundingBox    `json:"bounding_box"`
	Metadata    json.RawMessage `json:"metadata"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// HasBox reports whether the finding carries editable geometry.
func (f Finding) HasBox() bool {
	return f.Box != nil
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (f Finding) ParsedUpdatedAt() time.Time {
	return parseTime(f.UpdatedAt)
}

// Batch is a batch processing record.
type Batch struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Total       int    `json:"total"`
	Processed   int    `json:"processed"`
	Failed      int    `json:"failed"`
	Error       string `json:"error"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at"`
}

// Percent returns processed/total as a fraction in [0,1].
func (b Batch) Percent() float64 {
	if b.Total <= 0 {
		return 0
	}
	return math.Min(1, float64(b.Processed)/float64(b.Total))
}

// Elapsed returns how long the batch ran, or has been running as of now.
func (b Batch) Elapsed(now time.Time) time.Duration {
	start := parseTime(b.StartedAt)
	if start.IsZero() {
		return 0
	}
	end := parseTime(b.CompletedAt)
	if end.IsZero() {
		end = now
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// BoundingBox is a rectangle in normalized image coordinates, with the
// origin at the top-left and every edge inside [0,1].
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// minBoxSide keeps resized boxes from collapsing to nothing.
const minBoxSide = 0.005

// Translate moves the box by (dx, dy), keeping it inside the image.
func (b BoundingBox) Translate(dx, dy float64) BoundingBox {
	b.X += dx
	b.Y += dy
	return b.Clamp()
}

// Resize grows or shrinks the box from its top-left corner.
func (b BoundingBox) Resize(dw, dh float64) BoundingBox {
	b.Width = math.Max(minBoxSide, b.Width+dw)
	b.Height = math.Max(minBoxSide, b.Height+dh)
	return b.Clamp()
}

// Clamp fits the box into the unit square, shrinking it first if needed.
func (b BoundingBox) Clamp() BoundingBox {
	b.Width = clamp(b.Width, minBoxSide, 1)
	b.Height = clamp(b.Height, minBoxSide, 1)
	b.X = clamp(b.X, 0, 1-b.Width)
	b.Y = clamp(b.Y, 0, 1-b.Height)
	return b
}

// Valid reports whether the box already lies inside the unit square.
func (b BoundingBox) Valid() bool {
	return b.Width > 0 && b.Height > 0 &&
		b.X >= 0 && b.Y >= 0 &&
		b.X+b.Width <= 1+1e-9 && b.Y+b.Height <= 1+1e-9
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("x=%.3f y=%.3f w=%.3f h=%.3f", b.X, b.Y, b.Width, b.Height)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(studioTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
