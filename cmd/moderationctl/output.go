package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/thelibrary/moderation-backend/internal/models"
	"github.com/thelibrary/moderation-backend/internal/services"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatMaybe(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func printReports(items []models.Report) {
	rows := make([][]string, 0, len(items))
	for _, r := range items {
		rows = append(rows, []string{r.ID, r.TargetType, r.TargetID, r.Reason, r.Status, formatMaybe(r.AdminID), formatTime(r.CreatedAt)})
	}
	printTable([]string{"ID", "TYPE", "TARGET", "REASON", "STATUS", "ADMIN", "CREATED"}, rows)
}

func printAlerts(items []models.ReportAlert) {
	rows := make([][]string, 0, len(items))
	for _, a := range items {
		rows = append(rows, []string{a.ID, a.BookID, a.ReportReason, a.Status, formatTime(a.CreatedAt)})
	}
	printTable([]string{"ID", "BOOK", "REASON", "STATUS", "CREATED"}, rows)
}

func printStrikes(items []models.UserStrike) {
	rows := make([][]string, 0, len(items))
	for _, s := range items {
		rows = append(rows, []string{s.ID, s.Reason, strconv.Itoa(s.StrikeCount), strconv.FormatBool(s.IsActive), formatTime(s.CreatedAt)})
	}
	printTable([]string{"ID", "REASON", "COUNT", "ACTIVE", "CREATED"}, rows)
}

func printReconcile(r *services.ReconcileReport) {
	verb := "repaired"
	if r.DryRun {
		verb = "would repair"
	}
	books := len(r.BooksAlerted) + len(r.BooksSuppressed)
	rows := make([][]string, 0, books+len(r.UsersFlagged))
	for _, id := range r.BooksAlerted {
		rows = append(rows, []string{"book", id, "open alert"})
	}
	for _, id := range r.BooksSuppressed {
		rows = append(rows, []string{"book", id, "suppress"})
	}
	for _, id := range r.UsersFlagged {
		rows = append(rows, []string{"user", id, "require rename"})
	}
	fmt.Printf("%s %d book(s), %d user(s)\n", verb, books, len(r.UsersFlagged))
	printTable([]string{"KIND", "ID", "ACTION"}, rows)
}
