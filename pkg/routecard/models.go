package routecard

// Status literals are stored exactly as the upstream database writes them.
// Downstream document-generation tooling matches on these strings, so they
// must not be translated or normalized.
const (
	StatusPending   = "В работе"
	StatusCompleted = "Завершена"
)

// TimeLayout is the timestamp format used in the created_at column.
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout is the date-only format used for period bounds.
const DateLayout = "2006-01-02"

// RouteCard is the GORM model for a route-card blank. A card starts as a
// pending row carrying only a serial, and is completed once by recording an
// account number and a cluster number.
//
// CreatedAt holds the provisioning time for pending rows and is overwritten
// with the completion time when the card transitions to completed; there is
// no separate completion column in the upstream layout.
type RouteCard struct {
	ID            int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Serial        string `gorm:"column:serial;index:idx_route_cards_serial;not null"`
	AccountNumber string `gorm:"column:account_number"`
	ClusterNumber string `gorm:"column:cluster_number"`
	Status        string `gorm:"column:status;not null"`
	CreatedAt     string `gorm:"column:created_at"`
	FilePath      string `gorm:"column:file_path"`
}

// TableName returns the GORM table name.
func (RouteCard) TableName() string { return "route_cards" }

// HasBothNumbers reports whether the account number and the cluster number
// are both recorded. In the three-field workflow this is equivalent to the
// card being completed; the single-field workflow completes cards without
// recording either number.
func (c *RouteCard) HasBothNumbers() bool {
	return c.AccountNumber != "" && c.ClusterNumber != ""
}

// IsCompleted reports whether the card has the completed status.
func (c *RouteCard) IsCompleted() bool { return c.Status == StatusCompleted }

// MonthlyCount is one bucket of the monthly completion histogram.
type MonthlyCount struct {
	Month int   `gorm:"column:month"`
	Year  int   `gorm:"column:year"`
	Count int64 `gorm:"column:count"`
}

// YearlyCount is one bucket of the yearly histogram.
type YearlyCount struct {
	Year  int   `gorm:"column:year"`
	Count int64 `gorm:"column:count"`
}

// ValueCount is one row of a top-N frequency table.
type ValueCount struct {
	Value string `gorm:"column:value"`
	Count int64  `gorm:"column:count"`
}

// TopField names a column a top-N frequency table may be computed over.
type TopField string

const (
	TopFieldAccountNumber TopField = "account_number"
	TopFieldClusterNumber TopField = "cluster_number"
)

// Valid reports whether the field is one of the allowed top-N columns.
func (f TopField) Valid() bool {
	return f == TopFieldAccountNumber || f == TopFieldClusterNumber
}
