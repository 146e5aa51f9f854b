// Package templates renders the dashboard HTML as templ components.
//
// The components are written by hand against the templ runtime
// (templ.ComponentFunc and templ.EscapeString) rather than generated from
// .templ sources, so there is no templ generate step. Every dynamic value
// goes through templ.EscapeString before it is written.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`+
			templ.EscapeString(title)+`</title><style>`+styles+`</style></head><body><main>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

const styles = `body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1f2933}` +
	`main{max-width:1200px;margin:0 auto;padding:1.5rem}` +
	`.cards{display:grid;grid-template-columns:repeat(auto-fit,minmax(180px,1fr));gap:.75rem}` +
	`.card{background:#fff;border-radius:6px;padding:.75rem 1rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}` +
	`.card .label{font-size:.8rem;color:#52606d}.card .value{font-size:1.4rem;font-weight:600}` +
	`table{border-collapse:collapse;background:#fff;margin:.5rem 0 1.5rem;font-size:.85rem}` +
	`th,td{padding:.3rem .6rem;border-bottom:1px solid #e4e7eb;text-align:left}` +
	`td.num{text-align:right;font-variant-numeric:tabular-nums}` +
	`.grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(320px,1fr));gap:1rem}` +
	`.alert{background:#fde8e8;border:1px solid #f8b4b4;border-radius:6px;padding:.75rem 1rem}` +
	`.muted{color:#7b8794}form{margin:1rem 0}fieldset{border:0;padding:0}`

// write emits s unescaped. Callers escape user data.
func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

func money(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func count(v int) string {
	return printer.Sprintf("%d", v)
}

func percent(v float64) string {
	return printer.Sprintf("%.2f%%", v)
}
