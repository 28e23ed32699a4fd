// Package assets embeds static files the server needs at runtime:
// the commentary prompt template and the archive schema migrations.
package assets

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed commentary_prompt.tmpl sql/*.sql
var FS embed.FS

// CommentaryPrompt returns the raw text/template source for commentary prompts.
func CommentaryPrompt() (string, error) {
	b, err := FS.ReadFile("commentary_prompt.tmpl")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Migration is one embedded schema file.
type Migration struct {
	Name string // e.g. "sql/001_rounds.sql"
	SQL  string
}

// Migrations returns every embedded *.sql file in lexical order.
func Migrations() ([]Migration, error) {
	var out []Migration
	err := fs.WalkDir(FS, "sql", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			return nil
		}
		b, err := FS.ReadFile(path)
		if err != nil {
			return err
		}
		out = append(out, Migration{Name: path, SQL: string(b)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
