package inbox

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// ListSelector is the element new notifications are prepended to.
const ListSelector = "#notifications"

// Item renders one notification as a list entry.
func Item(rec notifications.Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "notification priority-" + string(rec.Priority.OrDefault())
		if !rec.Read {
			class += " unread"
		}
		_, err := fmt.Fprintf(w,
			`<li id="notification-%s" class="%s" data-type="%s"><strong>%s</strong><p>%s</p></li>`,
			templ.EscapeString(rec.ID),
			templ.EscapeString(class),
			templ.EscapeString(string(rec.Type)),
			templ.EscapeString(rec.Title),
			templ.EscapeString(rec.Message),
		)
		return err
	})
}
