package app

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"lunch-menu/internal/ghost"
	"lunch-menu/internal/menu"
)

var postTemplate = template.Must(template.New("post").Parse(`{{if .RestaurantName}}<p><strong>{{.RestaurantName}}</strong></p>
{{end}}{{range .Days}}<h2>{{.DayName}}</h2>
<ul>
{{- range .Menu.MainLunch}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- if .Menu.Plus}}
<h3>PLUS</h3>
<ul>
{{- range .Menu.Plus}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- range .Menu.ExtraGroups}}
<h3>{{.Name}}</h3>
<ul>
{{- range .Items}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{end}}`))

// RenderMenuHTML renders the weekly menu as a blog post body.
func RenderMenuHTML(doc *menu.Document) (string, error) {
	var buf bytes.Buffer
	if err := postTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render menu: %w", err)
	}
	return buf.String(), nil
}

// PostTitle names the post for a weekly menu.
func PostTitle(doc *menu.Document) string {
	if doc.RestaurantName != "" {
		return doc.RestaurantName + " 주간 식단표"
	}
	return "주간 식단표"
}

// PublishMenu posts the stored weekly menu to Ghost as a draft.
func (a *App) PublishMenu(ctx context.Context) (*ghost.Post, error) {
	if a.ghostClient == nil {
		return nil, fmt.Errorf("ghost client is not configured")
	}

	doc, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly menu: %w", err)
	}

	html, err := RenderMenuHTML(doc)
	if err != nil {
		return nil, err
	}

	post, err := a.ghostClient.CreatePost(ctx, ghost.NewPost{
		Title:  PostTitle(doc),
		HTML:   html,
		Status: ghost.StatusDraft,
		Tags:   []string{"weekly-menu"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save to ghost: %w", err)
	}

	fmt.Fprintf(a.out, "Created draft post %q (%s).\n", post.Title, post.ID)
	return post, nil
}
