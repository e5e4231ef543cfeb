// Package sqlstore keeps orders in a relational table through bun. Updates
// touch a single row.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type orderModel struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID            int64  `bun:"id,pk"`
	CustomerEmail string `bun:"customer_email,notnull"`
	Status        string `bun:"status,notnull"`
	OrderDate     string `bun:"order_date,notnull"`
	Location      string `bun:"location,notnull"`
}

func toModel(o order.Order) orderModel {
	return orderModel{
		ID:            o.ID,
		CustomerEmail: o.CustomerEmail,
		Status:        string(o.Status),
		OrderDate:     o.OrderDate,
		Location:      o.Location,
	}
}

func (m orderModel) toOrder() order.Order {
	return order.Order{
		ID:            m.ID,
		CustomerEmail: m.CustomerEmail,
		Status:        order.Status(m.Status),
		OrderDate:     m.OrderDate,
		Location:      m.Location,
	}
}

type Repository struct {
	db *bun.DB
}

var _ order.Repository = (*Repository)(nil)

// Open connects with the named driver and makes sure the schema exists.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: orders dsn is required", contractx.ErrValidation)
	}

	var db *bun.DB
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("%w: unsupported orders driver %q", contractx.ErrValidation, driver)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping orders db: %w", err)
	}

	repo := New(db)
	if err := repo.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func New(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) CreateSchema(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().
		Model((*orderModel)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}
	if _, err := r.db.NewCreateIndex().
		Model((*orderModel)(nil)).
		Index("orders_customer_email_idx").
		Column("customer_email").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create orders email index: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (order.Order, error) {
	var m orderModel
	err := r.db.NewSelect().Model(&m).Where("o.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, fmt.Errorf("%w: order %d", contractx.ErrNotFound, id)
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("select order %d: %w", id, err)
	}
	return m.toOrder(), nil
}

func (r *Repository) ListByEmail(ctx context.Context, email string) ([]order.Order, error) {
	var rows []orderModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("lower(o.customer_email) = lower(?)", strings.TrimSpace(email)).
		OrderExpr("o.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select orders by email: %w", err)
	}
	return toOrders(rows), nil
}

func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	var rows []orderModel
	if err := r.db.NewSelect().Model(&rows).OrderExpr("o.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return toOrders(rows), nil
}

func (r *Repository) Update(ctx context.Context, o order.Order) error {
	m := toModel(o)
	res, err := r.db.NewUpdate().Model(&m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: order %d", contractx.ErrNotFound, o.ID)
	}
	return nil
}

// Seed inserts orders whose id is not present yet and reports how many rows
// were added.
func (r *Repository) Seed(ctx context.Context, orders []order.Order) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}
	rows := make([]orderModel, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, toModel(o))
	}

	var inserted int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx)
		if err != nil {
			return err
		}
		inserted, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed orders: %w", err)
	}
	return int(inserted), nil
}

func toOrders(rows []orderModel) []order.Order {
	out := make([]order.Order, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toOrder())
	}
	return out
}
