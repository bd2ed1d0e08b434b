package notification

import (
	"fmt"
	"strings"

	"github.com/officeteam/office-utilities/internal/core/events"
	"github.com/officeteam/office-utilities/internal/workflow"
)

// Message is one rendered notification, in both email and chat form.
type Message struct {
	Subject string
	HTML    string
	Chat    string
}

func subjectLabel(subjectType string) string {
	if subjectType == events.SubjectExpense {
		return "Expense"
	}
	return "Request"
}

func statusLabel(status string) string {
	switch status {
	case workflow.StatusInProgress:
		return "In Progress"
	case workflow.StatusPending:
		return "Pending"
	case workflow.StatusCompleted:
		return "Completed"
	case workflow.StatusApproved:
		return "Approved"
	case workflow.StatusRejected:
		return "Rejected"
	}
	return status
}

// summaryLines are the key fields shown in every rendering of a
// subject.
func summaryLines(subject events.SubjectSnapshot, authorName string) []string {
	var lines []string
	if authorName != "" {
		lines = append(lines, fmt.Sprintf("From: %s", authorName))
	}
	if subject.SubjectType == events.SubjectExpense {
		lines = append(lines, fmt.Sprintf("Amount: %s %s", subject.Amount, subject.Currency))
		lines = append(lines, fmt.Sprintf("Category: %s", subject.Category))
	} else {
		lines = append(lines, fmt.Sprintf("Title: %s", subject.Title))
		lines = append(lines, fmt.Sprintf("Priority: %s", subject.Priority))
	}
	if subject.Description != "" {
		lines = append(lines, fmt.Sprintf("Details: %s", subject.Description))
	}
	return lines
}

func renderSubmission(subject events.SubjectSnapshot, authorName, dashboardURL string) Message {
	label := subjectLabel(subject.SubjectType)
	lines := summaryLines(subject, authorName)

	return Message{
		Subject: fmt.Sprintf("New %s #%d awaiting review", strings.ToLower(label), subject.SubjectID),
		HTML:    renderHTML(fmt.Sprintf("New %s submitted", label), lines, dashboardURL),
		Chat:    renderChat(fmt.Sprintf("New %s #%d", label, subject.SubjectID), lines),
	}
}

func renderStatusChange(subject events.SubjectSnapshot, dashboardURL string) Message {
	label := subjectLabel(subject.SubjectType)
	status := statusLabel(subject.Status)
	lines := summaryLines(subject, "")
	lines = append(lines, fmt.Sprintf("Status: %s", status))

	return Message{
		Subject: fmt.Sprintf("Your %s #%d is now %s", strings.ToLower(label), subject.SubjectID, status),
		HTML:    renderHTML(fmt.Sprintf("%s update", label), lines, dashboardURL),
		Chat:    renderChat(fmt.Sprintf("%s #%d: %s", label, subject.SubjectID, status), lines[:len(lines)-1]),
	}
}

func renderReminder(subject events.SubjectSnapshot, authorName, dashboardURL string) Message {
	label := subjectLabel(subject.SubjectType)
	lines := summaryLines(subject, authorName)
	lines = append(lines, fmt.Sprintf("Submitted: %s", subject.CreatedAt.Format("2006-01-02")))

	return Message{
		Subject: fmt.Sprintf("Reminder: %s #%d still pending", strings.ToLower(label), subject.SubjectID),
		HTML:    renderHTML(fmt.Sprintf("%s still pending", label), lines, dashboardURL),
		Chat:    renderChat(fmt.Sprintf("Reminder: %s #%d still pending", label, subject.SubjectID), lines),
	}
}

func renderHTML(heading string, lines []string, dashboardURL string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>%s</h2>", heading))
	b.WriteString("<ul>")
	for _, line := range lines {
		b.WriteString(fmt.Sprintf("<li>%s</li>", line))
	}
	b.WriteString("</ul>")
	if dashboardURL != "" {
		b.WriteString(fmt.Sprintf(`<p><a href="%s">Open the dashboard</a></p>`, dashboardURL))
	}
	return b.String()
}

func renderChat(heading string, lines []string) string {
	var b strings.Builder
	b.WriteString("*" + heading + "*\n")
	for _, line := range lines {
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
