package db

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner is the transactional contract services depend on. *Client
// satisfies it in production; GormTxRunner adapts a raw connection for
// tests and workers that hold a *gorm.DB directly.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GormTxRunner runs transactions on a raw GORM connection.
type GormTxRunner struct {
	conn *gorm.DB
}

// NewGormTxRunner adapts the provided connection to the TxRunner contract.
func NewGormTxRunner(conn *gorm.DB) *GormTxRunner {
	return &GormTxRunner{conn: conn}
}

func (r *GormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}
