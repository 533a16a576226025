package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// writer stops writing after the first error.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) { w.raw(templ.EscapeString(s)) }

func (w *writer) component(ctx context.Context, c templ.Component) {
	if w.err == nil {
		w.err = c.Render(ctx, w.w)
	}
}

// Layout wraps content in the shared HTML shell.
func Layout(appName, title string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		w.text(title)
		w.raw(`</title></head><body style="font-family:Helvetica,Arial,sans-serif;background:#f6f7f9;margin:0;padding:24px">`)
		w.raw(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr><td align="center">`)
		w.raw(`<table role="presentation" width="560" cellpadding="24" cellspacing="0" style="background:#ffffff;border-radius:8px"><tr><td>`)
		w.component(ctx, content)
		w.raw(`</td></tr></table><p style="color:#8a8f98;font-size:12px">`)
		w.text(appName)
		w.raw(`</p></td></tr></table></body></html>`)
		return w.err
	})
}

// paragraphs renders blank-line separated blocks as <p> elements, keeping
// single line breaks.
func paragraphs(w *writer, body string) {
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		w.raw(`<p style="font-size:15px;line-height:1.5;color:#1f2328">`)
		for i, line := range strings.Split(block, "\n") {
			if i > 0 {
				w.raw("<br>")
			}
			w.text(line)
		}
		w.raw("</p>")
	}
}

func heading(w *writer, s string) {
	w.raw(`<h1 style="font-size:20px;color:#1f2328">`)
	w.text(s)
	w.raw("</h1>")
}

// Generic is a titled message.
func Generic(subject, body string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		heading(w, subject)
		paragraphs(w, body)
		return w.err
	})
}

// BillReminder shows the bill title, amount and due date.
func BillReminder(name string, bill notifications.BillReminder) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		heading(w, bill.Title)
		paragraphs(w, fmt.Sprintf("Hi %s,\n\nThis is a reminder about an upcoming bill.", name))
		w.raw(`<table role="presentation" cellpadding="6" cellspacing="0" style="font-size:15px">`)
		w.raw(`<tr><td>Amount due</td><td><strong>`)
		w.text(fmt.Sprintf("$%.2f", bill.Amount))
		w.raw(`</strong></td></tr><tr><td>Due date</td><td><strong>`)
		w.text(bill.DueDate.Format("January 2, 2006"))
		w.raw(`</strong></td></tr></table>`)
		return w.err
	})
}

// Motivational celebrates an achievement.
func Motivational(name string, achievement notifications.Achievement) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		heading(w, fmt.Sprintf("Congratulations, %s!", name))
		w.raw(`<p style="font-size:17px"><strong>`)
		w.text(achievement.Title)
		w.raw("</strong></p>")
		paragraphs(w, achievement.Description)
		paragraphs(w, "Keep up the great work.")
		return w.err
	})
}
