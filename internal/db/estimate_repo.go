package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"mowquote/internal/types"
)

// ListEstimatesParams defines pagination for listing saved estimates.
type ListEstimatesParams struct {
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor"`
}

// EstimateRepository provides data access for the estimates table. The table
// is append-only: records are inserted once and never updated or deleted, so
// the repository exposes no mutation beyond Insert.
type EstimateRepository struct {
	db DBTX
}

// NewEstimateRepository creates a repository backed by the given connection
// (pool or transaction).
func NewEstimateRepository(db DBTX) *EstimateRepository {
	return &EstimateRepository{db: db}
}

// estimateColumns is the standard column set for estimate queries. Order must
// match scanEstimate.
const estimateColumns = `e.id, e.name, e.address, e.phone, e.email, e.notes,
	e.lawn_area, e.rate_used, e.shrub_price, e.cleanup_price, e.final_price,
	e.geometry, e.created_at`

// scanEstimate scans one row into an EstimateRecord. Works for both pgx.Row
// and pgx.Rows since both expose Scan.
func scanEstimate(row pgx.Row) (*types.EstimateRecord, error) {
	var (
		rec      types.EstimateRecord
		phone    *string
		email    *string
		notes    *string
		geometry []byte
	)

	err := row.Scan(
		&rec.ID,
		&rec.Customer.Name,
		&rec.Customer.Address,
		&phone,
		&email,
		&notes,
		&rec.LawnArea,
		&rec.RateUsed,
		&rec.ShrubPrice,
		&rec.CleanupPrice,
		&rec.FinalPrice,
		&geometry,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if phone != nil {
		rec.Customer.Phone = *phone
	}
	if email != nil {
		rec.Customer.Email = *email
	}
	if notes != nil {
		rec.Customer.Notes = *notes
	}
	if len(geometry) > 0 {
		geom, err := geojson.UnmarshalGeometry(geometry)
		if err != nil {
			return nil, fmt.Errorf("decoding stored geometry: %w", err)
		}
		if mp, ok := geom.Geometry().(orb.MultiPolygon); ok {
			rec.Geometry = mp
		}
	}

	return &rec, nil
}

// Insert persists a new estimate record. The caller must set the ID; the
// created_at timestamp defaults to NOW() when zero.
func (r *EstimateRepository) Insert(ctx context.Context, rec *types.EstimateRecord) error {
	var geometry []byte
	if len(rec.Geometry) > 0 {
		var err error
		geometry, err = geojson.NewGeometry(rec.Geometry).MarshalJSON()
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to encode estimate geometry", err)
		}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO estimates (
			id, name, address, phone, email, notes,
			lawn_area, rate_used, shrub_price, cleanup_price, final_price,
			geometry, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, COALESCE($13, NOW())
		)`,
		rec.ID,
		rec.Customer.Name,
		rec.Customer.Address,
		nilIfEmpty(rec.Customer.Phone),
		nilIfEmpty(rec.Customer.Email),
		nilIfEmpty(rec.Customer.Notes),
		rec.LawnArea,
		rec.RateUsed,
		rec.ShrubPrice,
		rec.CleanupPrice,
		rec.FinalPrice,
		geometry,
		nilIfZeroTime(rec.CreatedAt),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save estimate", err)
	}
	return nil
}

// GetByID retrieves an estimate by its ID. Returns ErrCodeNotFoundEstimate
// when no record exists.
func (r *EstimateRepository) GetByID(ctx context.Context, id string) (*types.EstimateRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+estimateColumns+` FROM estimates e WHERE e.id = $1`, id)

	rec, err := scanEstimate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundEstimate, "estimate not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve estimate", err)
	}
	return rec, nil
}

// List retrieves saved estimates newest first with keyset pagination. Uses a
// limit+1 fetch to detect further pages without a COUNT query.
func (r *EstimateRepository) List(ctx context.Context, params ListEstimatesParams) ([]*types.EstimateRecord, types.PageInfo, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var conditions []string
	var args []any
	argIdx := 1

	if params.Cursor != "" {
		cursorTime, cursorID, err := decodeCursor(params.Cursor)
		if err != nil {
			return nil, types.PageInfo{}, types.NewAppError(
				types.ErrCodeValidationFailed,
				"invalid pagination cursor",
				err,
			)
		}
		// Keyset condition on (created_at, id) so ties on the timestamp
		// still page deterministically.
		conditions = append(conditions, fmt.Sprintf("(e.created_at, e.id) < ($%d, $%d)", argIdx, argIdx+1))
		args = append(args, cursorTime, cursorID)
		argIdx += 2
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(
		`SELECT %s
		 FROM estimates e
		 %s
		 ORDER BY e.created_at DESC, e.id DESC
		 LIMIT $%d`,
		estimateColumns,
		whereClause,
		argIdx,
	)
	args = append(args, limit+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to list estimates", err)
	}
	defer rows.Close()

	var results []*types.EstimateRecord
	for rows.Next() {
		rec, scanErr := scanEstimate(rows)
		if scanErr != nil {
			return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to scan estimate row", scanErr)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "error iterating estimate rows", err)
	}

	pageInfo := types.PageInfo{}
	if len(results) > limit {
		pageInfo.HasMore = true
		last := results[limit-1]
		pageInfo.NextCursor = encodeCursor(last.CreatedAt, last.ID)
		results = results[:limit]
	}

	return results, pageInfo, nil
}

// encodeCursor packs a (created_at, id) keyset position into an opaque
// base64 token.
func encodeCursor(t time.Time, id string) string {
	raw := t.UTC().Format(time.RFC3339Nano) + "," + id
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor reverses encodeCursor.
func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("decoding cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), ",", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("malformed cursor")
	}
	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parsing cursor timestamp: %w", err)
	}
	return t, parts[1], nil
}

// nilIfEmpty maps "" to NULL for optional text columns.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nilIfZeroTime maps the zero time to NULL so the DB default applies.
func nilIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
