package storage

// internal/storage/policy_repo.go
import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cspguard/internal/core"
	"cspguard/internal/csp"

	"github.com/jmoiron/sqlx"
)

// DirectiveRow — строка таблицы csp_directives.
// Sources — значения через пробел, как в заголовке; имена SELF, NONCE... — ключевые слова.
type DirectiveRow struct {
	Mode     string `db:"mode"`
	Position int    `db:"position"`
	Name     string `db:"name"`
	Sources  string `db:"sources"`
}

// LoadPolicies читает политики из БД. Вызывается один раз при старте.
func LoadPolicies(ctx context.Context, db *sqlx.DB) (csp.Policies, error) {
	const q = `
		SELECT mode, position, name, sources
		FROM csp_directives
		ORDER BY mode, position`

	var rows []DirectiveRow
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		core.LogError("load csp directives", map[string]interface{}{
			"query": q,
			"error": err,
		})
		return csp.Policies{}, fmt.Errorf("storage: load csp directives: %w", err)
	}
	return PoliciesFromRows(rows)
}

// PoliciesFromRows собирает политики из строк таблицы.
func PoliciesFromRows(rows []DirectiveRow) (csp.Policies, error) {
	byMode := map[csp.Mode][]DirectiveRow{}
	for _, r := range rows {
		var mode csp.Mode
		switch strings.ToLower(strings.TrimSpace(r.Mode)) {
		case "enforce":
			mode = csp.Enforce
		case "report-only", "report_only":
			mode = csp.ReportOnly
		default:
			return csp.Policies{}, fmt.Errorf("storage: directive %q: unknown mode %q", r.Name, r.Mode)
		}
		byMode[mode] = append(byMode[mode], r)
	}

	var ps csp.Policies
	for mode, list := range byMode {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Position < list[j].Position })
		directives := make([]csp.PolicyDirective, 0, len(list))
		for _, r := range list {
			fields := strings.Fields(r.Sources)
			values := make([]csp.Source, 0, len(fields))
			for _, f := range fields {
				values = append(values, csp.ParseSource(f))
			}
			directives = append(directives, csp.Directive(r.Name, values...))
		}
		p, err := csp.NewPolicy(mode, directives...)
		if err != nil {
			return csp.Policies{}, fmt.Errorf("storage: %w", err)
		}
		if mode == csp.ReportOnly {
			ps.ReportOnly = p
		} else {
			ps.Enforce = p
		}
	}
	return ps, nil
}
