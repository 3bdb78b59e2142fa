// Package report lays out a project-management result as a paged document.
package report

import (
	"fmt"

	"github.com/Strob0t/pmreport/internal/domain/project"
	"github.com/Strob0t/pmreport/internal/layout"
)

// Fixed headings of the report.
const (
	Title        = "Project Management Result"
	SummaryLabel = "Comprehensive Progress Report"
	TasksHeader  = "Tasks Output"
	UsageHeader  = "Token Usage"
	DefaultFile  = "project_management_result.pdf"
)

// Renderer writes a result onto a layout.Surface. The zero value is not
// usable; create one with NewRenderer.
type Renderer struct {
	cfg layout.Config
}

// NewRenderer returns a Renderer using cfg for geometry and font sizes.
func NewRenderer(cfg layout.Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render validates r and draws the summary, tasks and token usage sections,
// each starting on its own page. It returns the number of pages produced.
// A result lacking tasks_output or token_usage yields
// domain.ErrMalformedResponse and nothing is drawn.
func (rd *Renderer) Render(r *project.Result, s layout.Surface) (int, error) {
	if err := project.ValidateResult(r); err != nil {
		return 0, fmt.Errorf("render report: %w", err)
	}

	c := layout.NewCursor(s, rd.cfg)

	c.SetFontSize(rd.cfg.TitleFontSize)
	c.EmitLine(Title, rd.cfg.HeadingAdvance)
	c.SetFontSize(rd.cfg.BodyFontSize)
	c.EmitLine(SummaryLabel, rd.cfg.HeadingAdvance)
	c.EmitWrappedBlock(r.Summary())

	c.ForcePageBreak()
	c.EmitLine(TasksHeader, rd.cfg.HeadingAdvance)
	for i, task := range r.Tasks() {
		rd.renderTask(c, i+1, &task)
	}

	c.ForcePageBreak()
	usage := r.TokenUsage
	c.EmitLine(UsageHeader, rd.cfg.HeadingAdvance)
	c.EmitLine(fmt.Sprintf("Prompt Tokens: %d", usage.PromptTokens), rd.cfg.LineHeight)
	c.EmitLine(fmt.Sprintf("Completion Tokens: %d", usage.CompletionTokens), rd.cfg.LineHeight)
	c.EmitLine(fmt.Sprintf("Total Tokens: %d", usage.TotalTokens), rd.cfg.LineHeight)

	return c.Pages(), nil
}

func (rd *Renderer) renderTask(c *layout.Cursor, n int, t *project.TaskRecord) {
	lh := rd.cfg.LineHeight
	c.EmitLine(fmt.Sprintf("Task %d:", n), lh)
	c.EmitLine("Agent: "+t.Agent, lh)
	c.EmitLine("Description: "+t.Description, lh)
	c.EmitLine("Expected Output: "+t.ExpectedOutput, lh)
	if body, ok := t.Body(); ok {
		c.EmitWrappedBlock(body)
	}
	c.Advance(rd.cfg.BlockGap)
}
