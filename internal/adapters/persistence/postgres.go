package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/okian/presence/internal/domain/roster"
)

// Connection pool settings for the roster store. The roster is small and
// written rarely, so the pool stays tight.
const (
	pgMaxOpenConns = 4
	pgMaxIdleConns = 2
	pgPingTimeout  = 10 * time.Second
)

const pgSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS people_embeddings (
	name          TEXT    NOT NULL,
	person_seq    INTEGER NOT NULL,
	embedding_seq INTEGER NOT NULL,
	embedding     VECTOR(128) NOT NULL,
	PRIMARY KEY (name, embedding_seq)
);
`

// PgStore persists the roster in PostgreSQL using pgvector, so several
// nodes can share one enrollment database.
type PgStore struct {
	db *sql.DB
}

// NewPgStore connects to url, verifies the connection, and ensures the
// schema exists.
func NewPgStore(ctx context.Context, url string) (*PgStore, error) {
	if url == "" {
		return nil, errors.New("postgres URL is required")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, pgPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return &PgStore{db: db}, nil
}

// Save replaces the stored roster in one transaction. person_seq preserves
// enrollment order across restarts.
func (s *PgStore) Save(ctx context.Context, people []roster.Person) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM people_embeddings`); err != nil {
		return fmt.Errorf("clearing roster: %w", err)
	}

	for personSeq, p := range people {
		for embSeq, emb := range p.Embeddings {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO people_embeddings (name, person_seq, embedding_seq, embedding)
				VALUES ($1, $2, $3, $4::vector)
			`, p.Name, personSeq, embSeq, pgvector.NewVector(emb))
			if err != nil {
				return fmt.Errorf("inserting embedding %d for %s: %w", embSeq, p.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing roster: %w", err)
	}
	return nil
}

// Load returns the stored roster in enrollment order.
func (s *PgStore) Load(ctx context.Context) ([]roster.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, embedding
		FROM people_embeddings
		ORDER BY person_seq, embedding_seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying roster: %w", err)
	}
	defer rows.Close()

	var (
		people []roster.Person
		index  = map[string]int{}
	)
	for rows.Next() {
		var (
			name string
			vec  pgvector.Vector
		)
		if err := rows.Scan(&name, &vec); err != nil {
			return nil, fmt.Errorf("scanning roster row: %w", err)
		}

		i, ok := index[name]
		if !ok {
			i = len(people)
			index[name] = i
			people = append(people, roster.Person{Name: name})
		}
		people[i].Embeddings = append(people[i].Embeddings, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roster rows: %w", err)
	}

	if people == nil {
		people = []roster.Person{}
	}
	return people, nil
}

// Close closes the connection pool.
func (s *PgStore) Close() error {
	return s.db.Close()
}
