// Package doctor checks that an entity schema matches the database it is run
// against.
//
// The doctor command loads the schema file, then compares every entity table,
// column and association table with the catalog of the current schema, and
// warns about to-many join columns without an index (capped loads run one
// ordered sub-select per parent row).
//
// Example usage:
//
//	d := doctor.New(db, "schema.yaml")
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pthm/autoload/schema"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Schema File", "Tables").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Doctor compares a schema file with a live database.
type Doctor struct {
	db         *sql.DB
	schemaPath string

	// Populated during Run.
	graph   *schema.Graph
	catalog map[string]map[string]bool // table -> columns
	indexed map[string]map[string]bool // table -> leading index columns
}

// New creates a new Doctor instance.
func New(db *sql.DB, schemaPath string) *Doctor {
	return &Doctor{
		db:         db,
		schemaPath: schemaPath,
	}
}

// Run executes all health checks and returns a report. Checks that depend on
// a valid schema are skipped when the schema fails to load.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	d.checkSchemaFile(report)
	if d.graph == nil {
		return report, nil
	}
	if err := d.loadCatalog(ctx); err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	d.checkTables(report)
	d.checkAssociations(report)
	d.checkIndexes(report)

	return report, nil
}

// checkSchemaFile validates the schema file exists and loads.
func (d *Doctor) checkSchemaFile(report *Report) {
	if _, err := os.Stat(d.schemaPath); err != nil {
		report.AddCheck(CheckResult{
			Category: "Schema File",
			Name:     "exists",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Schema file not found at %s", d.schemaPath),
			FixHint:  "Set 'schema' in autoload.yaml or pass --schema",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: "Schema File",
		Name:     "exists",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Schema file exists at %s", d.schemaPath),
	})

	g, err := schema.Load(d.schemaPath)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: "Schema File",
			Name:     "valid",
			Status:   StatusFail,
			Message:  "Schema is invalid",
			Details:  err.Error(),
			FixHint:  "Run 'autoload validate' to see detailed errors",
		})
		return
	}
	d.graph = g

	relCount := 0
	for _, e := range g.Entities() {
		relCount += len(e.Relationships)
	}
	report.AddCheck(CheckResult{
		Category: "Schema File",
		Name:     "valid",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Schema is valid (%d entities, %d relationships)", len(g.Entities()), relCount),
	})
}

// loadCatalog reads the columns and the leading column of every index in the
// current schema.
func (d *Doctor) loadCatalog(ctx context.Context) error {
	d.catalog = make(map[string]map[string]bool)
	rows, err := d.db.QueryContext(ctx, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
	`)
	if err != nil {
		return err
	}
	if err := collect(rows, d.catalog); err != nil {
		return fmt.Errorf("columns: %w", err)
	}

	d.indexed = make(map[string]map[string]bool)
	rows, err = d.db.QueryContext(ctx, `
		SELECT t.relname, a.attname
		FROM pg_index i
		JOIN pg_class t ON t.oid = i.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = i.indkey[0]
		WHERE n.nspname = current_schema()
	`)
	if err != nil {
		return err
	}
	if err := collect(rows, d.indexed); err != nil {
		return fmt.Errorf("indexes: %w", err)
	}
	return nil
}

func collect(rows *sql.Rows, into map[string]map[string]bool) error {
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return err
		}
		if into[table] == nil {
			into[table] = make(map[string]bool)
		}
		into[table][column] = true
	}
	return rows.Err()
}

// checkTables verifies each entity's table and declared columns exist.
func (d *Doctor) checkTables(report *Report) {
	var missingTables []string
	missingCols := make(map[string][]string)
	for _, e := range d.graph.Entities() {
		if e.Abstract {
			continue
		}
		cols, ok := d.catalog[e.Table]
		if !ok {
			missingTables = append(missingTables, e.Table)
			continue
		}
		for _, c := range e.ColumnNames() {
			if !cols[c] {
				missingCols[e.Table] = append(missingCols[e.Table], c)
			}
		}
	}

	if len(missingTables) > 0 {
		sort.Strings(missingTables)
		report.AddCheck(CheckResult{
			Category: "Tables",
			Name:     "tables",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d entity tables missing", len(missingTables)),
			Details:  "Missing: " + strings.Join(missingTables, ", "),
			FixHint:  "Create the tables or fix the 'table' entries in the schema",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: "Tables",
			Name:     "tables",
			Status:   StatusPass,
			Message:  "All entity tables exist",
		})
	}

	if len(missingCols) > 0 {
		tables := make([]string, 0, len(missingCols))
		for t := range missingCols {
			tables = append(tables, t)
		}
		sort.Strings(tables)
		var details []string
		for _, t := range tables {
			details = append(details, fmt.Sprintf("%s: %s", t, strings.Join(missingCols[t], ", ")))
		}
		report.AddCheck(CheckResult{
			Category: "Tables",
			Name:     "columns",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Columns missing on %d tables", len(tables)),
			Details:  strings.Join(details, "\n"),
			FixHint:  "Add the columns or remove them from the schema",
		})
		return
	}
	report.AddCheck(CheckResult{
		Category: "Tables",
		Name:     "columns",
		Status:   StatusPass,
		Message:  "All declared columns exist",
	})
}

// checkAssociations verifies association tables and their join columns.
func (d *Doctor) checkAssociations(report *Report) {
	seen := make(map[string]bool)
	var problems []string
	for _, e := range d.graph.Entities() {
		for _, r := range e.Relationships {
			if r.Association == nil || seen[r.Association.Table] {
				continue
			}
			table := r.Association.Table
			seen[table] = true

			cols, ok := d.catalog[table]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s (used by %s.%s) does not exist", table, e.Name, r.Key))
				continue
			}
			var need []string
			need = append(need, r.RemoteColumns()...)
			for _, p := range r.Association.On {
				need = append(need, p.Local)
			}
			for _, c := range need {
				if !cols[c] {
					problems = append(problems, fmt.Sprintf("%s.%s (used by %s.%s) does not exist", table, c, e.Name, r.Key))
				}
			}
		}
	}

	if len(seen) == 0 {
		return
	}
	if len(problems) > 0 {
		report.AddCheck(CheckResult{
			Category: "Associations",
			Name:     "association_tables",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d association problems", len(problems)),
			Details:  strings.Join(problems, "\n"),
			FixHint:  "Fix the association 'table' and 'join' entries in the schema",
		})
		return
	}
	report.AddCheck(CheckResult{
		Category: "Associations",
		Name:     "association_tables",
		Status:   StatusPass,
		Message:  fmt.Sprintf("%d association tables match the schema", len(seen)),
	})
}

// checkIndexes warns about to-many relationships whose remote join column is
// not the leading column of any index.
func (d *Doctor) checkIndexes(report *Report) {
	var unindexed []string
	var hints []string
	for _, e := range d.graph.Entities() {
		for _, r := range e.Relationships {
			if !r.Many {
				continue
			}
			table := d.remoteTable(r)
			if table == "" {
				continue
			}
			remote := r.RemoteColumns()
			if len(remote) == 0 || d.indexed[table][remote[0]] {
				continue
			}
			unindexed = append(unindexed, fmt.Sprintf("%s.%s (%s.%s)", table, remote[0], e.Name, r.Key))
			hints = append(hints, fmt.Sprintf("CREATE INDEX ON %s (%s);", table, strings.Join(remote, ", ")))
		}
	}

	if len(unindexed) > 0 {
		report.AddCheck(CheckResult{
			Category: "Indexes",
			Name:     "join_indexes",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d to-many join columns are not indexed", len(unindexed)),
			Details:  strings.Join(unindexed, "\n"),
			FixHint:  strings.Join(dedupe(hints), " "),
		})
		return
	}
	report.AddCheck(CheckResult{
		Category: "Indexes",
		Name:     "join_indexes",
		Status:   StatusPass,
		Message:  "All to-many join columns are indexed",
	})
}

// remoteTable is the table holding a relationship's remote join columns.
func (d *Doctor) remoteTable(r *schema.Relationship) string {
	if r.Association != nil {
		return r.Association.Table
	}
	if t := d.graph.Target(r); t != nil {
		return t.Table
	}
	return ""
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
