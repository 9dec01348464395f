// Package internal serves a debug page listing the raw Badger keys of the server.
package internal

import (
	"chat-hub/repositories"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

const (
	DefaultPrefix = "room:"
	maxRows       = 500
)

// StatsProvider feeds the dashboard header with live figures.
type StatsProvider func() map[string]any

type PageData struct {
	Prefix    string
	Items     []repositories.InspectRow
	Truncated bool
	Stats     map[string]any
}

// InspectHandler lists the keys under ?prefix= decoded by repositories.Inspect.
func InspectHandler(db *badger.DB, stats StatsProvider, log *slog.Logger) http.HandlerFunc {
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = DefaultPrefix
		}
		data := PageData{Prefix: prefix, Stats: map[string]any{}}
		if stats != nil {
			data.Stats = stats()
		}

		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				if len(data.Items) == maxRows {
					data.Truncated = true
					return nil
				}
				item := it.Item()
				err := item.Value(func(val []byte) error {
					row, err := repositories.Inspect(item.Key(), val)
					if err != nil {
						row.Detail = "undecodable: " + err.Error()
					}
					data.Items = append(data.Items, row)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Warn("Debug inspection failed", "prefix", prefix, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			log.Warn("Debug page rendering failed", "error", err)
		}
	}
}
