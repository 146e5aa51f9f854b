package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code, detail string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<div class="alert" role="alert"><strong>`, templ.EscapeString(message), `</strong>`); err != nil {
			return err
		}
		if detail != "" {
			if err := write(w, `<div><code>`, templ.EscapeString(detail), `</code></div>`); err != nil {
				return err
			}
		}
		if action != "" {
			if err := write(w, `<div>`, templ.EscapeString(action), `</div>`); err != nil {
				return err
			}
		}
		return write(w, `<div class="muted">Code: `, templ.EscapeString(code), `</div></div>`)
	})
}

// ErrorPage renders ErrorAlert as a full page.
func ErrorPage(message, action, code, detail string) templ.Component {
	return Layout("Sales dashboard", ErrorAlert(message, action, code, detail))
}
