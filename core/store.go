/*
store.go - storage interfaces, mirroring the teacher's generic/store.go
layering (Store / EntityStore / TxStore) generalized from a single ledger
to the full cash-flow data model. core never imports database/sql or any
driver; store/sqlite is the only package that does.
*/
package core

import "context"

// Store is the full read/write surface the API, ingestor, scheduler and
// questionnaire layer depend on. store/sqlite.Store implements it.
type Store interface {
	AccountStore
	TransactionStore
	CategoryStore
	CommitmentStore
	InflowStore
	KeyEventStore
	AnchorStore
	SnapshotStore
	CursorStore
	AuditStore
	AlertStore
	AliasStore

	// WithTx runs fn against a Store bound to a single transaction,
	// committing on nil return and rolling back otherwise. Mirrors the
	// teacher's Store.WithTx wrapper used for cursor+upsert atomicity.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Close() error
}

type AccountStore interface {
	UpsertAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id AccountID) (Account, bool, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error)
}

type TransactionStore interface {
	UpsertTransaction(ctx context.Context, tx Transaction) (inserted bool, err error)
	TransactionsInRange(ctx context.Context, account AccountID, from *Day, through Day) ([]Transaction, error)
	TransactionsForAccounts(ctx context.Context, accounts []AccountID, from, to Day) ([]Transaction, error)
	SumCleared(ctx context.Context, account AccountID, from *Day, through Day) (Money, error)
}

type CategoryStore interface {
	UpsertCategory(ctx context.Context, c Category) error
	GetCategoryByName(ctx context.Context, name, source string) (Category, bool, error)
	GetOrCreateHolding(ctx context.Context) (CategoryID, error)
	LookupCategoryMap(ctx context.Context, source, externalID string) (CategoryID, bool, error)
	SetCategoryMap(ctx context.Context, m CategoryMap) error
	ResolveAlias(ctx context.Context, alias string) (CategoryID, bool, error)
}

type CommitmentStore interface {
	ListCommitments(ctx context.Context) ([]Commitment, error)
	GetCommitment(ctx context.Context, id CommitmentID) (Commitment, bool, error)
}

type InflowStore interface {
	ListScheduledInflows(ctx context.Context) ([]ScheduledInflow, error)
}

type KeyEventStore interface {
	ListKeyEvents(ctx context.Context, from, to Day) ([]KeySpendEvent, error)
	UpsertKeyEvent(ctx context.Context, ev KeySpendEvent) error
	DeleteKeyEvent(ctx context.Context, id KeyEventID) error
}

type AnchorStore interface {
	AnchorFor(account AccountID) (AccountAnchor, bool, error)
	UpsertAnchor(ctx context.Context, a AccountAnchor) error
	ListAnchors(ctx context.Context) ([]AccountAnchor, error)
}

type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, s ForecastSnapshot) error
	LatestSnapshot(ctx context.Context) (ForecastSnapshot, bool, error)
}

type CursorStore interface {
	GetCursor(ctx context.Context, source string) (SourceCursor, bool, error)
	AdvanceCursor(ctx context.Context, source, cursor string, at Day) error
}

type AuditStore interface {
	InsertAudit(ctx context.Context, a IngestAudit) error
}

type AlertStore interface {
	UpsertAlert(ctx context.Context, a Alert) (created bool, err error)
	ListActiveAlerts(ctx context.Context) ([]Alert, error)
}

type AliasStore interface {
	SetAlias(ctx context.Context, alias string, category CategoryID) error
}
