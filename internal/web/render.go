// Package web holds the HTML templates and the gin renderer that serves them.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"sort"
	"strings"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates
var files embed.FS

const layout = "base"

// Renderer 每个页面模板单独解析（base + includes + 页面），实现 gin 的 render.HTMLRender
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer 解析全部嵌入模板，页面名如 posts/index.html
func NewRenderer() (*Renderer, error) {
	pages, err := fs.Glob(files, "templates/*/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		name := strings.TrimPrefix(p, "templates/")
		if strings.HasPrefix(name, "includes/") {
			continue
		}
		t, err := template.New(name).
			Funcs(funcMap(name)).
			ParseFS(files, "templates/base.html", "templates/includes/*.html", p)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Instance gin 调用入口
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.templates[name]
	if !ok {
		panic(fmt.Sprintf("html template %q is not defined", name))
	}
	return render.HTML{Template: t, Name: layout, Data: data}
}

func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Names 已加载的页面模板，按名字排序
func (r *Renderer) Names() []string {
	out := make([]string, 0, len(r.templates))
	for n := range r.templates {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
