package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx used by the repository, so tests can inject
// pgxmock.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository loads the full configuration tables. The tables are small enough
// to read in full per refresh.
type Repository struct {
	db  Querier
	now func() time.Time
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{db: pool, now: time.Now}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{db: q, now: time.Now}
}

const (
	menusQuery = `SELECT id, base_menu_id, name, variant, category,
       COALESCE(ticket_type, ''), required_tickets, duration_mins, active
  FROM menus ORDER BY position, id`

	roomsQuery = `SELECT id, name, can_treatment, can_iv,
       COALESCE(pair_group_id, ''), max_capacity, active
  FROM rooms ORDER BY position, id`

	intervalRulesQuery = `SELECT COALESCE(base_menu_id, ''), COALESCE(category, ''), min_interval_days
  FROM treatment_interval_rules ORDER BY id`
)

// LoadSnapshot reads menus, rooms, and interval rules into one snapshot.
func (r *Repository) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	menus, err := r.loadMenus(ctx)
	if err != nil {
		return nil, err
	}
	rooms, err := r.loadRooms(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := r.loadIntervalRules(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Menus:         menus,
		Rooms:         rooms,
		IntervalRules: rules,
		LoadedAt:      r.now().UTC(),
	}, nil
}

func (r *Repository) loadMenus(ctx context.Context) ([]Menu, error) {
	rows, err := r.db.Query(ctx, menusQuery)
	if err != nil {
		return nil, fmt.Errorf("catalog: load menus: %w", err)
	}
	defer rows.Close()

	var menus []Menu
	for rows.Next() {
		var m Menu
		var variant string
		if err := rows.Scan(&m.ID, &m.BaseMenuID, &m.Name, &variant, &m.Category,
			&m.TicketType, &m.RequiredTickets, &m.DurationMins, &m.Active); err != nil {
			return nil, fmt.Errorf("catalog: scan menu: %w", err)
		}
		m.Variant = MenuVariant(variant)
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate menus: %w", err)
	}
	return menus, nil
}

func (r *Repository) loadRooms(ctx context.Context) ([]Room, error) {
	rows, err := r.db.Query(ctx, roomsQuery)
	if err != nil {
		return nil, fmt.Errorf("catalog: load rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.Name, &room.CanTreatment, &room.CanIV,
			&room.PairGroupID, &room.MaxCapacity, &room.Active); err != nil {
			return nil, fmt.Errorf("catalog: scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate rooms: %w", err)
	}
	return rooms, nil
}

func (r *Repository) loadIntervalRules(ctx context.Context) ([]IntervalRule, error) {
	rows, err := r.db.Query(ctx, intervalRulesQuery)
	if err != nil {
		return nil, fmt.Errorf("catalog: load interval rules: %w", err)
	}
	defer rows.Close()

	var rules []IntervalRule
	for rows.Next() {
		var rule IntervalRule
		if err := rows.Scan(&rule.BaseMenuID, &rule.Category, &rule.MinIntervalDays); err != nil {
			return nil, fmt.Errorf("catalog: scan interval rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate interval rules: %w", err)
	}
	return rules, nil
}
