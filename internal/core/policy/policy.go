// Package policy holds the static table that maps each protected operation to
// the roles allowed to invoke it. The table is built once at startup and never
// mutated afterwards, so it can be shared by any number of request goroutines.
package policy

import (
	"sort"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

// Operation identifies a protected operation, independent of its transport route.
type Operation string

const (
	OpMe              Operation = "auth.me"
	OpReportCreate    Operation = "reports.create"
	OpReportList      Operation = "reports.list"
	OpReportStats     Operation = "reports.stats"
	OpReportByStation Operation = "reports.by_station"
	OpReportDateRange Operation = "reports.date_range"
	OpReportGet       Operation = "reports.get"
	OpReportUpdate    Operation = "reports.update"
	OpReportDelete    Operation = "reports.delete"
	OpUserGet         Operation = "users.get"
	OpUserUpdate      Operation = "users.update"
)

// Table is an immutable Operation → allowed roles mapping.
type Table struct {
	rules map[Operation]domain.RoleSet
}

// NewTable copies rules into a new Table.
func NewTable(rules map[Operation][]domain.Role) *Table {
	t := &Table{rules: make(map[Operation]domain.RoleSet, len(rules))}
	for op, roles := range rules {
		t.rules[op] = domain.NewRoleSet(roles...)
	}
	return t
}

// Default returns the policy of the reports API.
func Default() *Table {
	everyone := []domain.Role{domain.RoleUser, domain.RoleModerator, domain.RoleAdmin}
	staff := []domain.Role{domain.RoleModerator, domain.RoleAdmin}
	admins := []domain.Role{domain.RoleAdmin}

	return NewTable(map[Operation][]domain.Role{
		OpMe:              everyone,
		OpReportCreate:    everyone,
		OpReportList:      everyone,
		OpReportStats:     staff,
		OpReportByStation: everyone,
		OpReportDateRange: staff,
		OpReportGet:       everyone,
		OpReportUpdate:    everyone,
		OpReportDelete:    staff,
		OpUserGet:         admins,
		OpUserUpdate:      admins,
	})
}

// Roles returns a copy of the roles allowed for op. Unknown operations get an
// empty set, which allows nobody.
func (t *Table) Roles(op Operation) domain.RoleSet {
	set, ok := t.rules[op]
	if !ok {
		return domain.RoleSet{}
	}
	return set.Clone()
}

// Permits reports whether role may invoke op.
func (t *Table) Permits(op Operation, role domain.Role) bool {
	return t.rules[op].Allows(role)
}

// Operations lists every declared operation in lexical order.
func (t *Table) Operations() []Operation {
	ops := make([]Operation, 0, len(t.rules))
	for op := range t.rules {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Unreachable lists declared operations whose allow-set is empty.
func (t *Table) Unreachable() []Operation {
	var out []Operation
	for _, op := range t.Operations() {
		if len(t.rules[op]) == 0 {
			out = append(out, op)
		}
	}
	return out
}
