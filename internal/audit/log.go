// Package audit appends immutable records of consequential decisions:
// promotion outcomes, approval actions and batch recomputations. Advisory
// storage, never read back by the engine.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	TypePromotionDecided = "promotion.decided"
	TypeApprovalGranted  = "approval.granted"
	TypeRecomputeRun     = "recompute.run"
)

type Event struct {
	Type  string
	Actor string
	Key   string // entity key, e.g. enrollment or student achievement id
	Data  interface{}
}

type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

// Append records one event. A nil log drops events so callers need no guard.
func (l *Log) Append(ctx context.Context, e Event) error {
	if l == nil {
		return nil
	}
	data, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO audit_log (typ, actor, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.Type, e.Actor, e.Key, string(data), time.Now().Unix())
	return err
}
