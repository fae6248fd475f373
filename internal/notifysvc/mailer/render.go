// Package mailer renders notification templates and hands them to an SMTP relay.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"path"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer turns a template name and its locals into a subject and an HTML body.
type Renderer struct {
	subjects map[string]*texttemplate.Template
	bodies   map[string]*htmltemplate.Template
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		subjects: map[string]*texttemplate.Template{},
		bodies:   map[string]*htmltemplate.Template{},
	}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")

		subject, err := texttemplate.New(name).ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parsing %s subject: %w", name, err)
		}
		body, err := htmltemplate.New(name).ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parsing %s body: %w", name, err)
		}
		r.subjects[name] = subject
		r.bodies[name] = body
	}
	return r, nil
}

// Templates lists the known template names.
func (r *Renderer) Templates() []string {
	names := make([]string, 0, len(r.bodies))
	for name := range r.bodies {
		names = append(names, name)
	}
	return names
}

func (r *Renderer) Render(template string, locals map[string]interface{}) (subject, body string, err error) {
	st, ok := r.subjects[template]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", template)
	}

	var sb, bb bytes.Buffer
	if err := st.ExecuteTemplate(&sb, "subject", locals); err != nil {
		return "", "", fmt.Errorf("rendering %s subject: %w", template, err)
	}
	if err := r.bodies[template].ExecuteTemplate(&bb, "body", locals); err != nil {
		return "", "", fmt.Errorf("rendering %s body: %w", template, err)
	}
	return strings.TrimSpace(sb.String()), bb.String(), nil
}
