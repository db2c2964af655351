// Package assets provides the embedded player templates and the client-side
// loader script.
//
// Templates live under templates/ and are addressed by their file name
// without the .html extension (embed_div, embed_vimeo, mapa). The static/
// directory is served under /static by the HTTP server.
package assets

import (
	"embed"
	"io/fs"
	"mime"
	"path/filepath"
	"sort"
	"strings"
)

// TemplateExt is the extension of every embedded template file.
const TemplateExt = ".html"

// TemplatesFS embeds the player templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the client loader script.
//
//go:embed static
var StaticFS embed.FS

// GetTemplatesFS returns a sub-filesystem rooted at "templates/".
func GetTemplatesFS() (fs.FS, error) {
	return fs.Sub(TemplatesFS, "templates")
}

// GetStaticFS returns a sub-filesystem rooted at "static/".
func GetStaticFS() (fs.FS, error) {
	return fs.Sub(StaticFS, "static")
}

// TemplateNames returns the names of the embedded templates, sorted.
func TemplateNames() ([]string, error) {
	entries, err := fs.ReadDir(TemplatesFS, "templates")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != TemplateExt {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), TemplateExt))
	}
	sort.Strings(names)
	return names, nil
}

// ReadTemplate returns the source of the named embedded template.
func ReadTemplate(name string) ([]byte, error) {
	return fs.ReadFile(TemplatesFS, "templates/"+name+TemplateExt)
}

// GetContentType returns the MIME type for a given file path based on extension.
func GetContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}

	switch strings.ToLower(ext) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
