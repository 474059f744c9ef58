package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classdesk/classdesk/internal/domain"
)

type Store struct {
	pool        *pgxpool.Pool
	tenants     *TenantRepo
	profiles    *ProfileRepo
	invitations *InvitationRepo
	students    *StudentRepo
	payments    *PaymentRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		tenants:     NewTenantRepo(pool),
		profiles:    NewProfileRepo(pool),
		invitations: NewInvitationRepo(pool),
		students:    NewStudentRepo(pool),
		payments:    NewPaymentRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tenants() domain.TenantRepository         { return s.tenants }
func (s *Store) Profiles() domain.ProfileRepository       { return s.profiles }
func (s *Store) Invitations() domain.InvitationRepository { return s.invitations }
func (s *Store) Students() domain.StudentRepository       { return s.students }
func (s *Store) Payments() domain.PaymentRepository       { return s.payments }

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
