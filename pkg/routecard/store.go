package routecard

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	defaultListLimit = 100
	searchRowCap     = 100
)

// StoreOptions tunes CardStore behavior.
type StoreOptions struct {
	// CaseSensitiveSearch makes Search match substrings exactly instead of
	// case-insensitively.
	CaseSensitiveSearch bool

	// Clock overrides the timestamp source. Nil means time.Now.
	Clock func() time.Time
}

// CardStore owns the route_cards table. It is the single writer for record
// identity and completion data; every other component goes through it. The
// handle is injected at construction; there is no package-level store.
//
// Lookup and write methods report store faults as errors wrapping
// ErrStoreUnavailable. List and aggregate methods instead degrade to an
// empty result or a zero count on a fault, logging a warning, so that
// read-only reporting surfaces never crash on a transient I/O problem.
type CardStore struct {
	db            *gorm.DB
	logger        *slog.Logger
	caseSensitive bool
	now           func() time.Time
}

// NewCardStore creates a CardStore over the given database handle. A nil
// logger falls back to slog.Default.
func NewCardStore(db *gorm.DB, logger *slog.Logger, opts StoreOptions) *CardStore {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &CardStore{
		db:            db,
		logger:        logger.With("component", "cardstore"),
		caseSensitive: opts.CaseSensitiveSearch,
		now:           now,
	}
}

// Migrate creates or updates the route_cards table.
func (s *CardStore) Migrate() error {
	if err := s.db.AutoMigrate(&RouteCard{}); err != nil {
		return fmt.Errorf("auto-migrate route_cards: %w", err)
	}
	return nil
}

// FindBySerial returns the card with the given serial, or nil, nil when no
// row matches. The serial is compared exactly; callers normalize first.
func (s *CardStore) FindBySerial(serial string) (*RouteCard, error) {
	var card RouteCard
	err := s.db.Where("serial = ?", serial).First(&card).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find by serial: %w (%v)", ErrStoreUnavailable, err)
	}
	return &card, nil
}

// ExistsCompletedWithAccountNumber reports whether any completed card
// already carries the given account number.
func (s *CardStore) ExistsCompletedWithAccountNumber(accountNumber string) (bool, error) {
	return s.existsCompleted("account_number", accountNumber)
}

// ExistsCompletedWithClusterNumber reports whether any completed card
// already carries the given cluster number.
func (s *CardStore) ExistsCompletedWithClusterNumber(clusterNumber string) (bool, error) {
	return s.existsCompleted("cluster_number", clusterNumber)
}

func (s *CardStore) existsCompleted(column, value string) (bool, error) {
	var n int64
	err := s.db.Model(&RouteCard{}).
		Where(column+" = ? AND status = ?", value, StatusCompleted).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check %s: %w (%v)", column, ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// InsertPending provisions a new blank: a pending row carrying only the
// serial, the stamp time, and an optional pass-through file path. Returns
// ErrDuplicateSerial when a live row for the serial already exists.
func (s *CardStore) InsertPending(serial, filePath string) (*RouteCard, error) {
	existing, err := s.FindBySerial(serial)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("provision %q: %w", serial, ErrDuplicateSerial)
	}
	card := &RouteCard{
		Serial:    serial,
		Status:    StatusPending,
		CreatedAt: s.now().Format(TimeLayout),
		FilePath:  filePath,
	}
	if err := s.db.Create(card).Error; err != nil {
		return nil, fmt.Errorf("insert pending: %w (%v)", ErrStoreUnavailable, err)
	}
	return card, nil
}

// UpdateCompletion records both identifier numbers on the card with the
// given serial, marks it completed, and overwrites the timestamp with the
// completion time. Returns false, nil when zero rows matched the serial
// (the not-found signal) and an error only for store faults.
func (s *CardStore) UpdateCompletion(serial, accountNumber, clusterNumber string) (bool, error) {
	res := s.db.Model(&RouteCard{}).Where("serial = ?", serial).Updates(map[string]any{
		"account_number": accountNumber,
		"cluster_number": clusterNumber,
		"status":         StatusCompleted,
		"created_at":     s.now().Format(TimeLayout),
	})
	if res.Error != nil {
		return false, fmt.Errorf("update completion: %w (%v)", ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkCompleted stamps the card with the given serial as completed without
// touching the identifier fields. Used by the single-field workflow when a
// provisioned row already exists. Returns false, nil when zero rows matched.
func (s *CardStore) MarkCompleted(serial string) (bool, error) {
	res := s.db.Model(&RouteCard{}).Where("serial = ?", serial).Updates(map[string]any{
		"status":     StatusCompleted,
		"created_at": s.now().Format(TimeLayout),
	})
	if res.Error != nil {
		return false, fmt.Errorf("mark completed: %w (%v)", ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// InsertCompleted creates a completed row carrying only a serial and the
// stamp time. This is the single-field workflow's auto-provisioning write;
// no identifier numbers are recorded.
func (s *CardStore) InsertCompleted(serial string) error {
	card := &RouteCard{
		Serial:    serial,
		Status:    StatusCompleted,
		CreatedAt: s.now().Format(TimeLayout),
	}
	if err := s.db.Create(card).Error; err != nil {
		return fmt.Errorf("insert completed: %w (%v)", ErrStoreUnavailable, err)
	}
	return nil
}

// ListRecords returns cards ordered newest-first. A non-positive limit
// falls back to the default page size.
func (s *CardStore) ListRecords(limit, offset int) []RouteCard {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	var cards []RouteCard
	err := s.db.Order("id DESC").Limit(limit).Offset(offset).Find(&cards).Error
	if err != nil {
		s.logger.Warn("list records failed", "error", err)
		return nil
	}
	return cards
}

// Search returns cards whose serial, account number, or cluster number
// contains term as a substring, newest-first, capped at 100 rows. Matching
// is case-insensitive unless the store was configured otherwise; in the
// case-sensitive mode rows are prefiltered broadly and then compared
// exactly.
func (s *CardStore) Search(term string) []RouteCard {
	if term == "" {
		return s.ListRecords(searchRowCap, 0)
	}
	// Lowercasing happens on the database side for both operands so the
	// comparison uses one case-folding implementation; sqlite folds ASCII
	// only, which matches the upstream behavior.
	like := "%" + term + "%"
	var cards []RouteCard
	err := s.db.
		Where("LOWER(serial) LIKE LOWER(?) OR LOWER(account_number) LIKE LOWER(?) OR LOWER(cluster_number) LIKE LOWER(?)",
			like, like, like).
		Order("id DESC").Limit(searchRowCap).
		Find(&cards).Error
	if err != nil {
		s.logger.Warn("search failed", "term", term, "error", err)
		return nil
	}
	if !s.caseSensitive {
		return cards
	}
	exact := cards[:0]
	for _, c := range cards {
		if strings.Contains(c.Serial, term) ||
			strings.Contains(c.AccountNumber, term) ||
			strings.Contains(c.ClusterNumber, term) {
			exact = append(exact, c)
		}
	}
	return exact
}

// CountAll returns the total number of cards, zero on a store fault.
func (s *CardStore) CountAll() int64 {
	return s.count(s.db.Model(&RouteCard{}), "count all")
}

// CountCompleted returns the number of cards with the completed status.
func (s *CardStore) CountCompleted() int64 {
	return s.count(s.db.Model(&RouteCard{}).Where("status = ?", StatusCompleted), "count completed")
}

// CountIncomplete returns the number of cards missing an account number or
// a cluster number. Note this is a field-emptiness test, not a status test:
// cards completed by the single-field workflow carry no identifier numbers
// and count as incomplete here.
func (s *CardStore) CountIncomplete() int64 {
	return s.count(s.db.Model(&RouteCard{}).
		Where("account_number IS NULL OR account_number = '' OR cluster_number IS NULL OR cluster_number = ''"),
		"count incomplete")
}

// CountInRange returns the number of cards stamped between the two
// inclusive date-only bounds (YYYY-MM-DD).
func (s *CardStore) CountInRange(start, end string) int64 {
	return s.count(s.db.Model(&RouteCard{}).
		Where("substr(created_at, 1, 10) BETWEEN ? AND ?", start, end),
		"count in range")
}

// CountCompletedInRange returns the number of completed cards stamped
// between the two inclusive date-only bounds.
func (s *CardStore) CountCompletedInRange(start, end string) int64 {
	return s.count(s.db.Model(&RouteCard{}).
		Where("status = ?", StatusCompleted).
		Where("substr(created_at, 1, 10) BETWEEN ? AND ?", start, end),
		"count completed in range")
}

// CountIncompleteInRange returns the number of cards in the date range that
// are missing an account number or a cluster number.
func (s *CardStore) CountIncompleteInRange(start, end string) int64 {
	return s.count(s.db.Model(&RouteCard{}).
		Where("account_number IS NULL OR account_number = '' OR cluster_number IS NULL OR cluster_number = ''").
		Where("substr(created_at, 1, 10) BETWEEN ? AND ?", start, end),
		"count incomplete in range")
}

func (s *CardStore) count(q *gorm.DB, op string) int64 {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		s.logger.Warn(op+" failed", "error", err)
		return 0
	}
	return n
}

// MonthlyCompletionHistogram returns per-month completion counts in
// chronological order, restricted to completed cards. A zero year means
// all years; otherwise only buckets of that calendar year are returned.
func (s *CardStore) MonthlyCompletionHistogram(year int) []MonthlyCount {
	query := `SELECT substr(created_at, 6, 2) AS month,
		substr(created_at, 1, 4) AS year,
		COUNT(*) AS count
		FROM route_cards
		WHERE status = ?`
	args := []any{StatusCompleted}
	if year != 0 {
		query += ` AND substr(created_at, 1, 4) = ?`
		args = append(args, strconv.Itoa(year))
	}
	query += ` GROUP BY year, month ORDER BY year, month`

	var buckets []MonthlyCount
	if err := s.db.Raw(query, args...).Scan(&buckets).Error; err != nil {
		s.logger.Warn("monthly histogram failed", "error", err)
		return nil
	}
	return buckets
}

// YearlyHistogram returns per-year card counts over all rows, in
// chronological order.
func (s *CardStore) YearlyHistogram() []YearlyCount {
	query := `SELECT substr(created_at, 1, 4) AS year, COUNT(*) AS count
		FROM route_cards
		GROUP BY year ORDER BY year`

	var buckets []YearlyCount
	if err := s.db.Raw(query).Scan(&buckets).Error; err != nil {
		s.logger.Warn("yearly histogram failed", "error", err)
		return nil
	}
	return buckets
}

// TopValues returns the n most frequent non-empty values of the given
// field, descending by frequency with ties broken by value. An unknown
// field yields an empty table.
func (s *CardStore) TopValues(field TopField, n int) []ValueCount {
	if !field.Valid() {
		s.logger.Warn("top values requested for unknown field", "field", string(field))
		return nil
	}
	if n <= 0 {
		return nil
	}
	// The column name is interpolated from the TopField whitelist above,
	// never from caller input.
	query := fmt.Sprintf(`SELECT %s AS value, COUNT(*) AS count
		FROM route_cards
		WHERE %s IS NOT NULL AND %s <> ''
		GROUP BY value ORDER BY count DESC, value ASC LIMIT ?`,
		field, field, field)

	var values []ValueCount
	if err := s.db.Raw(query, n).Scan(&values).Error; err != nil {
		s.logger.Warn("top values failed", "field", string(field), "error", err)
		return nil
	}
	return values
}

// StatusBreakdown returns the row count per status literal. Empty on a
// store fault.
func (s *CardStore) StatusBreakdown() map[string]int64 {
	var rows []struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}
	query := `SELECT status, COUNT(*) AS count FROM route_cards GROUP BY status`
	if err := s.db.Raw(query).Scan(&rows).Error; err != nil {
		s.logger.Warn("status breakdown failed", "error", err)
		return nil
	}
	breakdown := make(map[string]int64, len(rows))
	for _, r := range rows {
		breakdown[r.Status] = r.Count
	}
	return breakdown
}
