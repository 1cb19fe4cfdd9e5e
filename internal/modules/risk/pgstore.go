package risk

import (
	"context"

	"propfirm-core/internal/models"
	"propfirm-core/pkg/db"
)

// PgAuditStore persists trade_audit_logs rows, grounded on the same
// db.TxManager query-layer shape as internal/modules/registry.PgStore.
type PgAuditStore struct{ tx db.TxManager }

func NewPgAuditStore(tx db.TxManager) *PgAuditStore { return &PgAuditStore{tx: tx} }

func (s *PgAuditStore) InsertAuditLog(ctx context.Context, entry models.AuditLogEntry) error {
	return s.tx.RunMaster(ctx, func(ctxTx context.Context, t db.Transaction) error {
		_, err := t.Exec(ctxTx, `
			insert into trade_audit_logs (event, payload, created_at)
			values ($1,$2,$3)`,
			entry.Event, entry.Payload, entry.CreatedAt)
		return err
	})
}
