package pages

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"notekeeper/views/models"
)

// NotePage renders a standalone HTML page for one note. note.HTML is
// trusted rendered markdown; every other field is escaped.
func NotePage(note models.NoteView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!doctype html><html><head><meta charset=\"utf-8\"><title>")
		b.WriteString(templ.EscapeString(note.Title))
		b.WriteString("</title></head><body><article class=\"note\" id=\"note-")
		b.WriteString(templ.EscapeString(note.ID))
		b.WriteString("\"><header><h1>")
		b.WriteString(templ.EscapeString(note.Title))
		b.WriteString("</h1>")
		b.WriteString(badges(note))
		fmt.Fprintf(&b, "<p class=\"meta\">created <time datetime=\"%s\">%s</time>",
			note.CreatedAt.Format(time.RFC3339), note.CreatedAt.Format("2006-01-02 15:04"))
		if note.UpdatedAt != nil {
			fmt.Fprintf(&b, ", updated <time datetime=\"%s\">%s</time>",
				note.UpdatedAt.Format(time.RFC3339), note.UpdatedAt.Format("2006-01-02 15:04"))
		}
		b.WriteString("</p></header><section class=\"content\">")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}

		if err := templ.Raw(note.HTML).Render(ctx, w); err != nil {
			return err
		}

		b.Reset()
		b.WriteString("</section>")
		if len(note.Tags) > 0 {
			b.WriteString("<ul class=\"tags\">")
			for _, tag := range note.Tags {
				b.WriteString("<li>")
				b.WriteString(templ.EscapeString(tag))
				b.WriteString("</li>")
			}
			b.WriteString("</ul>")
		}
		b.WriteString("</article></body></html>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func badges(note models.NoteView) string {
	var b strings.Builder
	if note.Favorite {
		b.WriteString("<span class=\"badge favorite\">favorite</span>")
	}
	if note.Archived {
		b.WriteString("<span class=\"badge archived\">archived</span>")
	}
	return b.String()
}
