package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"codesurvey/internal/survey"
)

type PostgresStore struct {
	DB *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

func (p *PostgresStore) Create(ctx context.Context, s Session) error {
	trials, err := json.Marshal(s.State.Trials)
	if err != nil {
		return fmt.Errorf("encode trials: %w", err)
	}
	_, err = p.DB.ExecContext(ctx,
		`insert into sessions(id, token_hash, phase, nickname, trial_index, trials, revealed_at, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$8)`,
		s.ID, s.TokenHash, string(s.State.Phase), s.State.Nickname, s.State.Index, trials, s.State.RevealedAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (Session, error) {
	var row sessionRow
	err := p.DB.GetContext(ctx, &row, `select * from sessions where id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("select session: %w", err)
	}
	st := survey.State{
		Phase:      survey.Phase(row.Phase),
		Nickname:   row.Nickname,
		Index:      row.TrialIndex,
		RevealedAt: row.RevealedAt,
	}
	if len(row.Trials) > 0 {
		if err := json.Unmarshal(row.Trials, &st.Trials); err != nil {
			return Session{}, fmt.Errorf("decode trials: %w", err)
		}
	}
	err = p.DB.SelectContext(ctx, &st.Records,
		`select username, trial, group_tag, color, distortion, time_sec, answer, submitted_at, correct
		 from responses where session_id=$1 order by trial`, id)
	if err != nil {
		return Session{}, fmt.Errorf("select responses: %w", err)
	}
	return Session{
		ID:        row.ID,
		TokenHash: row.TokenHash,
		State:     st,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (p *PostgresStore) Save(ctx context.Context, id string, prev, next survey.State, rec *survey.Record) error {
	trials, err := json.Marshal(next.Trials)
	if err != nil {
		return fmt.Errorf("encode trials: %w", err)
	}
	return WithTx(ctx, p.DB, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`update sessions set phase=$2, nickname=$3, trial_index=$4, trials=$5, revealed_at=$6, updated_at=now()
			 where id=$1 and phase=$7 and trial_index=$8`,
			id, string(next.Phase), next.Nickname, next.Index, trials, next.RevealedAt, string(prev.Phase), prev.Index)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrConflict
		}
		if rec == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`insert into responses(session_id, trial, username, group_tag, color, distortion, time_sec, answer, submitted_at, correct)
			 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			id, rec.Trial, rec.Username, rec.Group, rec.Color, rec.Distortion, rec.TimeSec, rec.Answer, rec.Timestamp, rec.Correct)
		if err != nil {
			return fmt.Errorf("insert response: %w", err)
		}
		return nil
	})
}
