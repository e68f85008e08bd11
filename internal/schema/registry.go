package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidRegistry indicates a registry whose snapshots or steps break an
// invariant.
var ErrInvalidRegistry = errors.New("invalid schema registry")

// ErrNoMigrationPath indicates that the registered steps do not chain between
// the requested versions.
var ErrNoMigrationPath = errors.New("no migration path")

// Snapshot is the full set of tables at a schema version.
type Snapshot struct {
	Version int
	Tables  []TableDefinition
}

// Registry holds version snapshots and the chain of steps between them.
type Registry struct {
	snapshots []Snapshot
	steps     []MigrationStep
}

// NewRegistry validates and returns a registry.
//
// The lowest snapshot is the baseline: a fresh store at any version is created
// directly from DefinitionAt. Steps must chain without gaps from the baseline,
// every step must target a snapshot, and every later snapshot must be the
// target of a step.
func NewRegistry(snapshots []Snapshot, steps []MigrationStep) (*Registry, error) {
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: no snapshots", ErrInvalidRegistry)
	}

	r := &Registry{
		snapshots: append([]Snapshot(nil), snapshots...),
		steps:     append([]MigrationStep(nil), steps...),
	}
	sort.Slice(r.snapshots, func(i, j int) bool { return r.snapshots[i].Version < r.snapshots[j].Version })
	sort.Slice(r.steps, func(i, j int) bool { return r.steps[i].To < r.steps[j].To })

	for i, snap := range r.snapshots {
		if snap.Version < 1 {
			return nil, fmt.Errorf("%w: snapshot version %d must be positive", ErrInvalidRegistry, snap.Version)
		}
		if i > 0 && snap.Version == r.snapshots[i-1].Version {
			return nil, fmt.Errorf("%w: duplicate snapshot version %d", ErrInvalidRegistry, snap.Version)
		}
		if err := validateTables(snap.Tables); err != nil {
			return nil, fmt.Errorf("snapshot v%d: %w", snap.Version, err)
		}
	}

	targets := make(map[int]bool, len(r.steps))
	prev := r.Baseline()
	for _, step := range r.steps {
		if step.From != prev {
			return nil, fmt.Errorf("%w: step %q starts at v%d, expected v%d", ErrInvalidRegistry, step.Label(), step.From, prev)
		}
		if step.To <= step.From {
			return nil, fmt.Errorf("%w: step %q does not advance the version", ErrInvalidRegistry, step.Label())
		}
		if !r.hasSnapshot(step.To) {
			return nil, fmt.Errorf("%w: step %q targets v%d which has no snapshot", ErrInvalidRegistry, step.Label(), step.To)
		}
		if err := r.validateAction(step); err != nil {
			return nil, err
		}
		targets[step.To] = true
		prev = step.To
	}

	for _, snap := range r.snapshots[1:] {
		if !targets[snap.Version] {
			return nil, fmt.Errorf("%w: snapshot v%d is not reached by any step", ErrInvalidRegistry, snap.Version)
		}
	}

	return r, nil
}

// MustRegistry is NewRegistry for statically defined schemas. It panics on an
// invalid registry.
func MustRegistry(snapshots []Snapshot, steps []MigrationStep) *Registry {
	r, err := NewRegistry(snapshots, steps)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) validateAction(step MigrationStep) error {
	if step.Action == nil {
		return fmt.Errorf("%w: step v%d->v%d has no action", ErrInvalidRegistry, step.From, step.To)
	}
	target := r.snapshotAt(step.To).Tables

	switch a := step.Action.(type) {
	case RawDDL:
		if len(a.Statements) == 0 {
			return fmt.Errorf("%w: step %q has no statements", ErrInvalidRegistry, step.Label())
		}
	case AddColumnWithDefault:
		table, ok := Lookup(target, a.Table)
		if !ok {
			return fmt.Errorf("%w: step %q adds to unknown table %q", ErrInvalidRegistry, step.Label(), a.Table)
		}
		col, ok := table.Column(a.Column.Name)
		if !ok || col.Definition() != a.Column.Definition() {
			return fmt.Errorf("%w: step %q: column %s.%s does not match the v%d snapshot",
				ErrInvalidRegistry, step.Label(), a.Table, a.Column.Name, step.To)
		}
	case RebuildTable:
		table, ok := Lookup(target, a.Table)
		if !ok {
			return fmt.Errorf("%w: step %q rebuilds unknown table %q", ErrInvalidRegistry, step.Label(), a.Table)
		}
		for col := range a.Expressions {
			if _, ok := table.Column(col); !ok {
				return fmt.Errorf("%w: step %q: expression for unknown column %s.%s",
					ErrInvalidRegistry, step.Label(), a.Table, col)
			}
		}
	default:
		return fmt.Errorf("%w: step %q has unsupported action %T", ErrInvalidRegistry, step.Label(), step.Action)
	}
	return nil
}

// Baseline returns the lowest snapshot version.
func (r *Registry) Baseline() int {
	return r.snapshots[0].Version
}

// Latest returns the highest registered version.
func (r *Registry) Latest() int {
	return r.snapshots[len(r.snapshots)-1].Version
}

func (r *Registry) hasSnapshot(v int) bool {
	for _, s := range r.snapshots {
		if s.Version == v {
			return true
		}
	}
	return false
}

// DefinitionAt returns the tables that exist at version v.
func (r *Registry) DefinitionAt(v int) ([]TableDefinition, error) {
	if v < r.Baseline() || v > r.Latest() {
		return nil, fmt.Errorf("%w: version %d outside v%d..v%d", ErrNoMigrationPath, v, r.Baseline(), r.Latest())
	}
	return append([]TableDefinition(nil), r.snapshotAt(v).Tables...), nil
}

// snapshotAt returns the snapshot with the highest version not above v.
// Callers ensure v is not below the baseline.
func (r *Registry) snapshotAt(v int) Snapshot {
	snap := r.snapshots[0]
	for _, s := range r.snapshots {
		if s.Version > v {
			break
		}
		snap = s
	}
	return snap
}

// MigrationsFrom returns the steps that move a store from version oldV to
// newV, in ascending order. Equal versions yield no steps.
func (r *Registry) MigrationsFrom(oldV, newV int) ([]MigrationStep, error) {
	if oldV > newV {
		return nil, fmt.Errorf("%w: v%d->v%d goes backwards", ErrNoMigrationPath, oldV, newV)
	}
	if oldV == newV {
		return nil, nil
	}

	var steps []MigrationStep
	cur := oldV
	for _, step := range r.steps {
		if step.From < oldV || step.To > newV {
			continue
		}
		if step.From != cur {
			break
		}
		steps = append(steps, step)
		cur = step.To
	}
	if cur != newV {
		return nil, fmt.Errorf("%w: v%d->v%d", ErrNoMigrationPath, oldV, newV)
	}
	return steps, nil
}

// Steps returns every registered step in order.
func (r *Registry) Steps() []MigrationStep {
	return append([]MigrationStep(nil), r.steps...)
}
