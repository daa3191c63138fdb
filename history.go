package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"blendassist/config"
	"blendassist/storage"
)

const historyLimit = 20

// runHistory prints the run journal: one run when id is set, search matches
// when query is set, otherwise the most recent runs.
func runHistory(cfg *config.Config, query, id string) int {
	journal, err := storage.NewAuditJournal(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open run journal: %v\n", err)
		return 1
	}
	defer journal.Close()

	if id != "" {
		err = printRun(os.Stdout, journal, id)
	} else {
		err = printHistory(os.Stdout, journal, query, historyLimit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printHistory(w io.Writer, journal *storage.AuditJournal, query string, limit int) error {
	total, err := journal.Count()
	if err != nil {
		return fmt.Errorf("failed to count runs: %w", err)
	}

	if query != "" {
		matches, err := journal.Search(query, limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d of %d runs match %q\n", len(matches), total, query)
		for _, m := range matches {
			fmt.Fprintf(w, "%s  %s  %-5s  %s\n", m.ID, m.CreatedAt.Format("2006-01-02 15:04"), m.Field, firstLine(m.Preview))
		}
		return nil
	}

	entries, err := journal.Recent(limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	fmt.Fprintf(w, "%d runs recorded\n", total)
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %-7s  %s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04"), runStatus(e), firstLine(e.Task))
	}
	return nil
}

func printRun(w io.Writer, journal *storage.AuditJournal, id string) error {
	entry, err := journal.Get(id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("no run with ID %q", id)
	}

	fmt.Fprintf(w, "ID:       %s\n", entry.ID)
	fmt.Fprintf(w, "Time:     %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Backend:  %s\n", entry.Backend)
	if entry.Scene != "" {
		fmt.Fprintf(w, "Scene:    %s\n", entry.Scene)
	}
	fmt.Fprintf(w, "Status:   %s\n", runStatus(*entry))
	fmt.Fprintf(w, "Task:     %s\n", entry.Task)

	switch {
	case !entry.ResponseOK():
		fmt.Fprintf(w, "Failure:  %s: %s\n", entry.FailureKind, entry.FailureDetail)
	case entry.ExecError != "":
		fmt.Fprintf(w, "Error:    %s\n", entry.ExecError)
	}

	if entry.Reply != "" {
		fmt.Fprintf(w, "\n%s\n", entry.Reply)
	}
	return nil
}

func runStatus(e storage.AuditEntry) string {
	switch {
	case !e.ResponseOK():
		return "failed"
	case e.ExecError != "":
		return "error"
	case e.Executed:
		return "ok"
	default:
		return "skipped"
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
