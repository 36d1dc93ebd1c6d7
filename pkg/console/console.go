// Package console renders the interview for a human on a terminal.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	interviewerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("208"))

	candidateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))
)

// Console writes interview output to w.
type Console struct {
	w io.Writer
}

// New returns a Console writing to w.
func New(w io.Writer) *Console {
	return &Console{w: w}
}

// Banner prints the program title.
func (c *Console) Banner() {
	fmt.Fprintf(c.w, "%s\n\n", titleStyle.Render("Technical Interviewer Agent"))
}

// SummaryLoaded announces which summary the interview is based on.
func (c *Console) SummaryLoaded(sourceID string) {
	fmt.Fprintf(c.w, "%s %s\n\n", dimStyle.Render("Loaded summary from:"), sourceID)
}

// Summary prints a stored summary record.
func (c *Console) Summary(sourceID, text, createdAt string) {
	fmt.Fprintf(c.w, "%s %s\n", titleStyle.Render(sourceID), dimStyle.Render(createdAt))
	fmt.Fprintln(c.w, strings.TrimSpace(text))
}

// Question prints the interviewer's opening question.
func (c *Console) Question(text string) {
	fmt.Fprintf(c.w, "%s %s\n", interviewerStyle.Render("Interviewer:"), text)
}

// Feedback prints the combined feedback and follow-up question.
func (c *Console) Feedback(text string) {
	fmt.Fprintf(c.w, "\n%s %s\n", interviewerStyle.Render("Interviewer:"), text)
}

// Usage prints the token counters of one completion call.
func (c *Console) Usage(promptTokens, completionTokens int) {
	fmt.Fprintln(c.w, dimStyle.Render(fmt.Sprintf("Tokens used: prompt=%d | completion=%d", promptTokens, completionTokens)))
}

// AnswerPrompt asks the candidate for input.
func (c *Console) AnswerPrompt() {
	fmt.Fprintf(c.w, "%s ", candidateStyle.Render("You:"))
}

// Ended prints the farewell line.
func (c *Console) Ended() {
	fmt.Fprintln(c.w, "Session ended.")
}
