// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/job-autopilot/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRun outputs a human-readable summary of a run and its counters.
func (p *Printer) PrintRun(run *types.Run) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:     %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Status:  %s\n", run.Status))
	sb.WriteString(fmt.Sprintf("Started: %s\n", run.StartedAt.Format(time.RFC3339)))
	if run.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("Took:    %s\n", run.CompletedAt.Sub(run.StartedAt).Round(time.Second)))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Found:            %d\n", run.Counters.Found))
	sb.WriteString(fmt.Sprintf("Scored:           %d\n", run.Counters.Scored))
	sb.WriteString(fmt.Sprintf("Above threshold:  %d\n", run.Counters.AboveThreshold))
	sb.WriteString(fmt.Sprintf("Applied:          %d\n", run.Counters.Applied))
	sb.WriteString(fmt.Sprintf("Failed:           %d", run.Counters.Failed))

	p.printBox("RUN SUMMARY", sb.String())
}

// PrintJobs outputs the jobs of a run grouped by status, most relevant
// first within each group.
func (p *Printer) PrintJobs(jobs []*types.Job) {
	if len(jobs) == 0 {
		return
	}

	grouped := map[types.JobStatus][]*types.Job{}
	for _, job := range jobs {
		grouped[job.Status] = append(grouped[job.Status], job)
	}

	order := []types.JobStatus{
		types.JobApplied,
		types.JobAwaitingHuman,
		types.JobContentReady,
		types.JobEligible,
		types.JobScored,
		types.JobFailed,
		types.JobSkipped,
		types.JobDiscovered,
	}

	var sb strings.Builder
	for _, status := range order {
		group := grouped[status]
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return scoreOf(group[i]) > scoreOf(group[j])
		})

		sb.WriteString(fmt.Sprintf("%s (%d):\n", strings.ToUpper(string(status)), len(group)))
		count := min(len(group), maxItemsToShow)
		for i := 0; i < count; i++ {
			job := group[i]
			sb.WriteString(fmt.Sprintf("  • %s @ %s", job.Title, job.Company))
			if job.RelevanceScore != nil {
				sb.WriteString(fmt.Sprintf(" (%.0f)", *job.RelevanceScore))
			}
			sb.WriteString("\n")
			if status == types.JobAwaitingHuman && job.PauseReason != "" {
				sb.WriteString(fmt.Sprintf("    paused: %s\n", job.PauseReason))
			}
		}
		if len(group) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(group)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	p.printBox("JOBS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAttempts outputs the attempt trail for one job, oldest first.
func (p *Printer) PrintAttempts(job *types.Job, attempts []*types.ApplicationAttempt) {
	if job == nil || len(attempts) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s @ %s\n\n", job.Title, job.Company))
	for i, a := range attempts {
		sb.WriteString(fmt.Sprintf("#%d  %s → %s\n", i+1, a.Strategy, a.Outcome))
		if a.Error != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", a.Error))
		}
	}

	p.printBox("APPLICATION ATTEMPTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintContent outputs the generated application content for review.
func (p *Printer) PrintContent(job *types.Job) {
	if job == nil || job.Content == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Summary: %s\n", job.Content.Summary))
	if len(job.Content.ResumePoints) > 0 {
		sb.WriteString("\nResume points:\n")
		count := min(len(job.Content.ResumePoints), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", job.Content.ResumePoints[i]))
		}
		if len(job.Content.ResumePoints) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(job.Content.ResumePoints)-maxItemsToShow))
		}
	}

	p.printBox("GENERATED CONTENT", strings.TrimSuffix(sb.String(), "\n"))
}

func scoreOf(job *types.Job) float64 {
	if job.RelevanceScore == nil {
		return -1
	}
	return *job.RelevanceScore
}
