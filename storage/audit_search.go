package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

const previewWidth = 100

type AuditMatch struct {
	ID        string
	Field     string // "task" or "reply"
	Preview   string
	CreatedAt time.Time
}

// likeEscaper escapes LIKE wildcards so the query matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns journal entries whose task or generated code contains query,
// newest first. Matching is case-insensitive for ASCII, as SQLite's LIKE is.
func (aj *AuditJournal) Search(query string, limit int) ([]AuditMatch, error) {
	if query == "" || limit <= 0 {
		return []AuditMatch{}, nil
	}

	pattern := "%" + likeEscaper.Replace(query) + "%"
	rows, err := aj.db.Query(`SELECT `+auditColumns+` FROM runs
		WHERE task LIKE ? ESCAPE '\' OR reply LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search runs: %w", err)
	}
	defer rows.Close()

	queryLower := strings.ToLower(query)
	matches := []AuditMatch{}

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		field, content := "reply", entry.Reply
		if strings.Contains(strings.ToLower(entry.Task), queryLower) {
			field, content = "task", entry.Task
		}

		matches = append(matches, AuditMatch{
			ID:        entry.ID,
			Field:     field,
			Preview:   runewidth.Truncate(content, previewWidth, "..."),
			CreatedAt: entry.CreatedAt,
		})
	}

	return matches, rows.Err()
}
