/*
entities.go - the data model from the spec's store layer, generalized
from the teacher's generic/types.go (EntityID/PolicyID/Transaction) and
generic/policy.go (Policy/Constraints) to the cash-flow domain. These are
plain structs; persistence lives in store/sqlite, derivation lives in the
other core files.
*/
package core

// AccountID, CategoryID and friends are string IDs (UUIDs, minted by
// google/uuid at creation time) rather than the teacher's typed integer
// EntityID, since accounts/categories/commitments are user-facing and
// referenced across HTTP, CLI, and export boundaries.
type (
	AccountID   string
	CategoryID  string
	CommitmentID string
	InflowID    string
	KeyEventID  string
	SnapshotID  string
	AlertID     string
	AuditID     string
)

type AccountType string

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
	AccountCredit   AccountType = "credit"
	AccountLoan     AccountType = "loan"
)

// Account is created by the Ingestor on first sight and never deleted.
type Account struct {
	ID       AccountID
	Name     string
	Type     AccountType
	Currency string
	IsActive bool
}

// Transaction is upsert-only: once inserted, only CategoryID, IsCleared
// and ImportMeta are ever rewritten on re-ingest.
type Transaction struct {
	IdempotencyKey string
	AccountID      AccountID
	PostedAt       Day
	AmountCents    Money
	Payee          string
	Memo           string
	ExternalID     string
	Source         string
	CategoryID     *CategoryID
	IsCleared      bool
	ImportMeta     string
}

// Category rows with Source=="internal" are permanent once assigned;
// external snapshots (Source==<upstream name>) coexist alongside them.
type Category struct {
	ID         CategoryID
	Name       string
	ParentID   *CategoryID
	IsArchived bool
	Source     string
	ExternalID *string
}

const InternalSource = "internal"
const HoldingCategoryName = "Holding"

// CategoryMap is the frozen (source, external_id) -> internal category
// mapping maintained by the Category Mapper. Monotonic: a sync never
// rewrites an existing row.
type CategoryMap struct {
	Source            string
	ExternalID         string
	InternalCategoryID CategoryID
}

type ShiftPolicy string

const (
	AsScheduled      ShiftPolicy = "AS_SCHEDULED"
	PrevBusinessDay  ShiftPolicy = "PREV_BUSINESS_DAY"
	NextBusinessDay  ShiftPolicy = "NEXT_BUSINESS_DAY"
)

// Commitment is a recurring obligation. AmountCents is a positive
// magnitude; the Calendar Expander applies the outflow sign.
type Commitment struct {
	ID                 CommitmentID
	Name               string
	AmountCents        Money
	DueRule            string
	NextDueDate        Day
	Priority           int
	AccountID          AccountID
	FlexibleWindowDays int
	CategoryID         CategoryID
	Type               string
	ShiftPolicy        ShiftPolicy
}

// ScheduledInflow is the inflow-side twin of Commitment: same shape,
// opposite sign in expansion.
type ScheduledInflow struct {
	ID          InflowID
	Name        string
	AmountCents Money
	DueRule     string
	NextDueDate Day
	AccountID   AccountID
	Type        string
}

// KeySpendEvent is a discrete dated event. PlannedAmountCents follows the
// spec's fixed convention: positive = expense, negative = income.
type KeySpendEvent struct {
	ID                  KeyEventID
	Name                string
	EventDate           Day
	RepeatRule          string
	PlannedAmountCents  Money
	CategoryID          CategoryID
	LeadTimeDays        int
	ShiftPolicy         ShiftPolicy
	AccountID           *AccountID
}

// InLeadWindow reports whether the event is within its lead window of
// the given reference day (event_date - today <= lead_time_days).
func (k KeySpendEvent) InLeadWindow(today Day) bool {
	return DaysBetween(today, k.EventDate) <= k.LeadTimeDays
}

// AccountAnchor is operator-declared ground truth for an account's
// balance at a specific date.
type AccountAnchor struct {
	AccountID          AccountID
	AnchorDate         Day
	AnchorBalanceCents Money
	MinFloorCents      *Money
}

// ForecastSnapshot is an append-only materialization of a forecast run.
// Payload is the msgpack-encoded series+entries blob (see snapshot.go).
type ForecastSnapshot struct {
	ID              SnapshotID
	CreatedAt       Day
	HorizonStart    Day
	HorizonEnd      Day
	Payload         []byte
	MinBalanceCents Money
	MinBalanceDate  Day
}

// SourceCursor tracks the delta-ingest watermark per upstream source.
type SourceCursor struct {
	Source     string
	LastCursor string
	UpdatedAt  Day
}

type IngestStatus string

const (
	IngestSuccess IngestStatus = "success"
	IngestPartial IngestStatus = "partial"
	IngestFailure IngestStatus = "failure"
)

// IngestAudit is one row per ingest invocation.
type IngestAudit struct {
	ID            AuditID
	Source        string
	RunStartedAt  Day
	RunFinishedAt Day
	RowsUpserted  int
	Status        IngestStatus
	Notes         string
}

type AlertType string

const (
	AlertThresholdBreach  AlertType = "threshold_breach"
	AlertLargeUnplanned   AlertType = "large_unplanned_debit"
	AlertCommitmentDrift  AlertType = "commitment_drift"
)

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is unique on (Type, DedupeKey); re-evaluation updates the
// existing row rather than inserting a duplicate.
type Alert struct {
	ID         AlertID
	CreatedAt  Day
	Type       AlertType
	DedupeKey  string
	Severity   AlertSeverity
	Title      string
	Message    string
	Details    string
	ResolvedAt *Day
}

// QuestionCategoryAlias lets the questionnaire layer resolve plain-term
// vocabulary ("groceries", "rent") to a category ID.
type QuestionCategoryAlias struct {
	Alias      string
	CategoryID CategoryID
}
