package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pithworks/pith/internal/errors"
	"github.com/pithworks/pith/internal/pattern"
)

// SQLiteStore implements Store over the schema created by internal/db.
// SQLite serializes writers, and every admission/aggregation decision is a
// single conditional statement, so the §5 atomicity requirements hold
// without application-level locking.
type SQLiteStore struct {
	db        *sql.DB
	freeLimit int

	// now is overridable in tests to simulate day rollover.
	now func() time.Time
}

// NewSQLite creates a store over an initialized database. freeLimit is the
// daily allowance used when lazily creating free-tier quota rows.
func NewSQLite(db *sql.DB, freeLimit int) *SQLiteStore {
	return &SQLiteStore{
		db:        db,
		freeLimit: freeLimit,
		now:       time.Now,
	}
}

// SetClock overrides the store's clock. Test hook for day-rollover paths.
func (s *SQLiteStore) SetClock(now func() time.Time) {
	s.now = now
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// today returns the current calendar day as YYYY-MM-DD in UTC.
func (s *SQLiteStore) today() string {
	return s.now().UTC().Format("2006-01-02")
}

// RecordSession persists a session and folds its deltas into token_stats
// within one transaction.
func (s *SQLiteStore) RecordSession(ctx context.Context, sess *Session) error {
	if sess.CreatedAt == 0 {
		sess.CreatedAt = s.now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (
			id, agent_id, original_tokens, compressed_tokens, ratio,
			tokens_saved, cost_saved, strategy, quality_score,
			original_text, compressed_text, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.AgentID, sess.OriginalTokens, sess.CompressedTokens, sess.Ratio,
		sess.TokensSaved, sess.CostSaved, sess.Strategy, sess.QualityScore,
		toNullString(sess.OriginalText), toNullString(sess.CompressedText), sess.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewInvalidRequest("session id already recorded: " + sess.ID)
		}
		return errors.NewStorageUnavailable(err)
	}

	initialRatio := 1.0
	if sess.OriginalTokens > 0 {
		initialRatio = float64(sess.CompressedTokens) / float64(sess.OriginalTokens)
	}

	// Additive upsert; avg_ratio is recomputed from running totals in the
	// same statement so concurrent sessions cannot lose updates.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO token_stats (
			agent_id, date, original_tokens, compressed_tokens,
			tokens_saved, cost_saved, compressions, avg_ratio
		) VALUES (?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(agent_id, date) DO UPDATE SET
			original_tokens   = original_tokens + excluded.original_tokens,
			compressed_tokens = compressed_tokens + excluded.compressed_tokens,
			tokens_saved      = tokens_saved + excluded.tokens_saved,
			cost_saved        = cost_saved + excluded.cost_saved,
			compressions      = compressions + 1,
			avg_ratio         = CAST(compressed_tokens + excluded.compressed_tokens AS REAL)
			                    / MAX(original_tokens + excluded.original_tokens, 1)`,
		sess.AgentID, s.today(), sess.OriginalTokens, sess.CompressedTokens,
		sess.TokensSaved, sess.CostSaved, initialRatio,
	)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageUnavailable(err)
	}
	return nil
}

// GetSession retrieves a recorded session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, agent_id, original_tokens, compressed_tokens, ratio,
			tokens_saved, cost_saved, strategy, quality_score,
			original_text, compressed_text, created_at
		FROM sessions WHERE id = ?`, id)

	var sess Session
	var origText, compText sql.NullString
	err := row.Scan(
		&sess.ID, &sess.AgentID, &sess.OriginalTokens, &sess.CompressedTokens, &sess.Ratio,
		&sess.TokensSaved, &sess.CostSaved, &sess.Strategy, &sess.QualityScore,
		&origText, &compText, &sess.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewUnknownSession(id)
	}
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	sess.OriginalText = fromNullString(origText)
	sess.CompressedText = fromNullString(compText)
	return &sess, nil
}

// GetStats aggregates token_stats rows over a timeframe window.
func (s *SQLiteStore) GetStats(ctx context.Context, agentID, timeframe string) (*StatsAggregate, error) {
	query := `
		SELECT COALESCE(SUM(original_tokens), 0), COALESCE(SUM(compressed_tokens), 0),
			COALESCE(SUM(tokens_saved), 0), COALESCE(SUM(cost_saved), 0),
			COALESCE(SUM(compressions), 0)
		FROM token_stats WHERE agent_id = ?`
	args := []any{agentID}

	if cutoff, ok := s.timeframeCutoff(timeframe); ok {
		query += " AND date >= ?"
		args = append(args, cutoff)
	}

	agg := &StatsAggregate{AgentID: agentID, Timeframe: timeframe}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&agg.OriginalTokens, &agg.CompressedTokens,
		&agg.TokensSaved, &agg.CostSaved, &agg.Compressions,
	)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}

	// Ratio of running totals, not an average of per-session ratios.
	if agg.OriginalTokens > 0 {
		agg.AvgRatio = float64(agg.CompressedTokens) / float64(agg.OriginalTokens)
	} else {
		agg.AvgRatio = 1.0
	}
	return agg, nil
}

// timeframeCutoff maps a timeframe to its inclusive start date.
// Returns ok=false for "all" (no filter).
func (s *SQLiteStore) timeframeCutoff(timeframe string) (string, bool) {
	now := s.now().UTC()
	switch timeframe {
	case TimeframeDay:
		return now.Format("2006-01-02"), true
	case TimeframeWeek:
		return now.AddDate(0, 0, -6).Format("2006-01-02"), true
	case TimeframeMonth:
		return now.AddDate(0, 0, -29).Format("2006-01-02"), true
	default:
		return "", false
	}
}

// UpsertPattern inserts or merges a pattern observation. Frequency
// increments atomically; importance and token_impact are last-write-wins,
// an accepted race under concurrent writers.
func (s *SQLiteStore) UpsertPattern(ctx context.Context, p *pattern.Pattern) (*pattern.Pattern, error) {
	if p.ID == "" {
		p.ID = pattern.DeriveID(p.AgentID, p.Type, p.Text)
	}
	if p.LastSeen == 0 {
		p.LastSeen = s.now().Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patterns (id, agent_id, type, text, frequency, token_impact, importance, last_seen)
		VALUES (?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			frequency    = frequency + 1,
			token_impact = excluded.token_impact,
			importance   = excluded.importance,
			last_seen    = excluded.last_seen`,
		p.ID, p.AgentID, string(p.Type), p.Text, p.TokenImpact, p.Importance, p.LastSeen,
	)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}

	return s.getPattern(ctx, p.ID)
}

// getPattern reads one committed pattern row.
func (s *SQLiteStore) getPattern(ctx context.Context, id string) (*pattern.Pattern, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, agent_id, type, text, frequency, token_impact, importance, last_seen
		FROM patterns WHERE id = ?`, id)

	var p pattern.Pattern
	var typ string
	err := row.Scan(&p.ID, &p.AgentID, &typ, &p.Text, &p.Frequency, &p.TokenImpact, &p.Importance, &p.LastSeen)
	if err == sql.ErrNoRows {
		return nil, errors.NewInvalidRequest("pattern not found: " + id)
	}
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	p.Type = pattern.Type(typ)
	return &p, nil
}

// GetPatterns returns an agent's patterns ordered by importance desc,
// frequency desc.
func (s *SQLiteStore) GetPatterns(ctx context.Context, agentID string, typeFilter pattern.Type) ([]*pattern.Pattern, error) {
	query := `
		SELECT id, agent_id, type, text, frequency, token_impact, importance, last_seen
		FROM patterns WHERE agent_id = ?`
	args := []any{agentID}

	if typeFilter != "" {
		query += " AND type = ?"
		args = append(args, string(typeFilter))
	}
	query += " ORDER BY importance DESC, frequency DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []*pattern.Pattern
	for rows.Next() {
		var p pattern.Pattern
		var typ string
		if err := rows.Scan(&p.ID, &p.AgentID, &typ, &p.Text, &p.Frequency, &p.TokenImpact, &p.Importance, &p.LastSeen); err != nil {
			return nil, errors.NewStorageUnavailable(err)
		}
		p.Type = pattern.Type(typ)
		patterns = append(patterns, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	return patterns, nil
}

// AdjustImportance shifts importance by delta, clamped to [0, 1] in SQL.
// Unknown ids are a silent no-op; importance adjustment is best-effort.
func (s *SQLiteStore) AdjustImportance(ctx context.Context, patternID string, delta float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE patterns
		SET importance = MIN(1.0, MAX(0.0, importance + ?)), last_seen = ?
		WHERE id = ?`,
		delta, s.now().Unix(), patternID,
	)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}
	return nil
}

// LinkSessionPatterns records session→pattern attribution rows.
func (s *SQLiteStore) LinkSessionPatterns(ctx context.Context, sessionID string, links []PatternLink) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, link := range links {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO session_patterns (session_id, pattern_id, role) VALUES (?, ?, ?)",
			sessionID, link.PatternID, link.Role,
		)
		if err != nil {
			return errors.NewStorageUnavailable(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageUnavailable(err)
	}
	return nil
}

// GetSessionPatterns returns the pattern links for a session.
func (s *SQLiteStore) GetSessionPatterns(ctx context.Context, sessionID string) ([]PatternLink, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT pattern_id, role FROM session_patterns WHERE session_id = ?", sessionID)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	defer func() { _ = rows.Close() }()

	var links []PatternLink
	for rows.Next() {
		var link PatternLink
		if err := rows.Scan(&link.PatternID, &link.Role); err != nil {
			return nil, errors.NewStorageUnavailable(err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// ensureQuota lazily creates the quota row and applies a pending daily
// reset. Both statements are idempotent and safe under concurrency.
func (s *SQLiteStore) ensureQuota(ctx context.Context, agentID string) error {
	now := s.now().Unix()
	today := s.today()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quotas (agent_id, tier, limit_value, used_today, reset_date, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON CONFLICT(agent_id) DO NOTHING`,
		agentID, TierFree, s.freeLimit, today, now,
	)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}

	// Reset exactly once per calendar day, on first access after the date
	// changes. The date guard makes concurrent resets converge.
	_, err = s.db.ExecContext(ctx, `
		UPDATE quotas SET used_today = 0, reset_date = ?, updated_at = ?
		WHERE agent_id = ? AND reset_date <> ?`,
		today, now, agentID, today,
	)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}
	return nil
}

// GetOrInitQuota returns the agent's quota, creating it with free-tier
// defaults when absent.
func (s *SQLiteStore) GetOrInitQuota(ctx context.Context, agentID string) (*Quota, error) {
	if err := s.ensureQuota(ctx, agentID); err != nil {
		return nil, err
	}
	return s.getQuota(ctx, agentID)
}

// PeekQuota reports quota state without side effects: unseen agents get the
// free-tier default view, stale rows get the post-rollover view.
func (s *SQLiteStore) PeekQuota(ctx context.Context, agentID string) (*Quota, error) {
	q, err := s.getQuota(ctx, agentID)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) {
			return &Quota{
				AgentID:   agentID,
				Tier:      TierFree,
				Limit:     s.freeLimit,
				UsedToday: 0,
				ResetDate: s.today(),
			}, nil
		}
		return nil, err
	}
	if q.ResetDate != s.today() {
		q.UsedToday = 0
		q.ResetDate = s.today()
	}
	return q, nil
}

// getQuota reads one quota row.
func (s *SQLiteStore) getQuota(ctx context.Context, agentID string) (*Quota, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT agent_id, tier, limit_value, used_today, reset_date, paid_until, updated_at
		FROM quotas WHERE agent_id = ?`, agentID)

	var q Quota
	var paidUntil sql.NullInt64
	err := row.Scan(&q.AgentID, &q.Tier, &q.Limit, &q.UsedToday, &q.ResetDate, &paidUntil, &q.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewInvalidRequest("quota not found: " + agentID)
	}
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	if paidUntil.Valid {
		t := time.Unix(paidUntil.Int64, 0).UTC()
		q.PaidUntil = &t
	}
	return &q, nil
}

// AtomicConsumeQuota admits and increments in a single conditional UPDATE;
// two concurrent requests each seeing "1 remaining" cannot both be admitted.
func (s *SQLiteStore) AtomicConsumeQuota(ctx context.Context, agentID string) (*ConsumeResult, error) {
	if err := s.ensureQuota(ctx, agentID); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE quotas SET used_today = used_today + 1, updated_at = ?
		WHERE agent_id = ? AND (tier = ? OR limit_value < 0 OR used_today < limit_value)`,
		s.now().Unix(), agentID, TierPro,
	)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}

	q, err := s.getQuota(ctx, agentID)
	if err != nil {
		return nil, err
	}

	result := &ConsumeResult{
		Admitted: affected == 1,
		Limit:    q.Limit,
		Tier:     q.Tier,
	}
	if q.Tier == TierPro || q.Limit < 0 {
		result.Remaining = UnlimitedLimit
	} else {
		result.Remaining = q.Limit - q.UsedToday
		if result.Remaining < 0 {
			result.Remaining = 0
		}
	}
	return result, nil
}

// UpdateQuota applies a partial mutation. Pro tier forces the unlimited
// sentinel; downgrading to free restores the configured daily limit unless
// an explicit limit accompanies the update.
func (s *SQLiteStore) UpdateQuota(ctx context.Context, agentID string, upd QuotaUpdate) (*Quota, error) {
	if upd.IsEmpty() {
		return nil, errors.NewInvalidUpdate("at least one quota field must be provided")
	}

	if err := s.ensureQuota(ctx, agentID); err != nil {
		return nil, err
	}

	var sets []string
	var args []any

	if upd.Tier != nil {
		if *upd.Tier != TierFree && *upd.Tier != TierPro {
			return nil, errors.NewInvalidRequest("tier must be one of: free, pro")
		}
		sets = append(sets, "tier = ?")
		args = append(args, *upd.Tier)

		if upd.Limit == nil {
			sets = append(sets, "limit_value = ?")
			if *upd.Tier == TierPro {
				args = append(args, UnlimitedLimit)
			} else {
				args = append(args, s.freeLimit)
			}
		}
	}
	if upd.Limit != nil {
		sets = append(sets, "limit_value = ?")
		args = append(args, *upd.Limit)
	}
	if upd.PaidUntil != nil {
		sets = append(sets, "paid_until = ?")
		args = append(args, upd.PaidUntil.Unix())
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, s.now().Unix())
	args = append(args, agentID)

	_, err := s.db.ExecContext(ctx,
		"UPDATE quotas SET "+strings.Join(sets, ", ")+" WHERE agent_id = ?", args...)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}

	return s.getQuota(ctx, agentID)
}

// RecordFeedback appends a feedback row.
func (s *SQLiteStore) RecordFeedback(ctx context.Context, fb *Feedback) error {
	if fb.CreatedAt == 0 {
		fb.CreatedAt = s.now().Unix()
	}
	var notes sql.NullString
	if fb.Notes != "" {
		notes = sql.NullString{String: fb.Notes, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_feedback (session_id, type, score, notes, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		fb.SessionID, fb.Type, fb.Score, notes, fb.CreatedAt,
	)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}
	return nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
