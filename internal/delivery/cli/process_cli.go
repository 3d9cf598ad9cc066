package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"quickResume/internal/domain"
	"quickResume/internal/usecase"
)

const clearScreen = "\033[H\033[2J"

// ProcessCLI handles command-line interface for process operations
type ProcessCLI struct {
	processService usecase.ProcessService
	out            io.Writer
}

// NewProcessCLI creates a new CLI handler
func NewProcessCLI(service usecase.ProcessService, out io.Writer) *ProcessCLI {
	return &ProcessCLI{
		processService: service,
		out:            out,
	}
}

// ListProcesses displays the filtered snapshot as running and suspended tables
func (c *ProcessCLI) ListProcesses(ctx context.Context, filter domain.Filter, asJSON bool) error {
	view := c.processService.View(ctx, filter)
	if view.Version == 0 {
		if err := c.processService.Reconciler().LastError(); err != nil {
			return fmt.Errorf("failed to list processes: %w", err)
		}
	}

	if asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	c.renderView(view)
	return nil
}

// SuspendProcess suspends every process matching identifier
func (c *ProcessCLI) SuspendProcess(ctx context.Context, identifier string) error {
	fmt.Fprintf(c.out, "Suspending %s...\n", identifier)
	return c.report(c.processService.SuspendProcess(ctx, identifier))
}

// ResumeProcess resumes every process matching identifier
func (c *ProcessCLI) ResumeProcess(ctx context.Context, identifier string) error {
	fmt.Fprintf(c.out, "Resuming %s...\n", identifier)
	return c.report(c.processService.ResumeProcess(ctx, identifier))
}

func (c *ProcessCLI) report(result *domain.OperationResult) error {
	if !result.Success {
		color.New(color.FgRed).Fprintln(c.out, result.Message)
		return &ResultError{Result: result}
	}
	color.New(color.FgGreen).Fprintln(c.out, result.Message)
	return nil
}

// Watch redraws the view after every refresh until ctx is done. The
// reconciliation loop must be running for updates to arrive.
func (c *ProcessCLI) Watch(ctx context.Context, filter domain.Filter) error {
	events, unsubscribe := c.processService.Reconciler().Subscribe()
	defer unsubscribe()

	// redraw at least once a second so the status line expires on time
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, "\nStopping watch...")
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			lastErr = event.Err
		case <-ticker.C:
		}

		fmt.Fprint(c.out, clearScreen)
		fmt.Fprintf(c.out, "quickResume - %s (Ctrl+C to stop)\n\n", time.Now().Format("15:04:05"))
		c.renderView(c.processService.View(ctx, filter))
		if lastErr != nil {
			color.New(color.FgYellow).Fprintf(c.out, "\nrefresh failed: %v\n", lastErr)
		}
		c.renderStatus()
	}
}

func (c *ProcessCLI) renderView(view usecase.ProcessView) {
	color.New(color.Bold).Fprintf(c.out, "Running (%d)\n", len(view.Active))
	c.renderTable(view.Active)

	fmt.Fprintln(c.out)
	color.New(color.Bold).Fprintf(c.out, "Suspended (%d)\n", len(view.Suspended))
	c.renderTable(view.Suspended)
}

func (c *ProcessCLI) renderTable(records []domain.ProcessRecord) {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"PID", "Name", "Window", "Status"})
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)

	for _, p := range records {
		table.Append([]string{strconv.Itoa(p.PID), p.Name, p.WindowTitle, string(p.Status())})
	}
	table.Render()
}

func (c *ProcessCLI) renderStatus() {
	msg, ok := c.processService.Status()
	if !ok {
		return
	}
	fg := color.FgGreen
	if msg.IsError {
		fg = color.FgRed
	}
	fmt.Fprintln(c.out)
	color.New(fg).Fprintln(c.out, msg.Text)
}

// ResultError carries a failed façade result out of a command
type ResultError struct {
	Result *domain.OperationResult
}

func (e *ResultError) Error() string {
	return e.Result.Message
}
