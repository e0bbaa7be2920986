package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToursTable stores tour documents.
const ToursTable = "tours"

// tourArrays are the array fields of a tour document.
var tourArrays = []string{"images", "startDates", "locations", "guides"}

// angleSQL is the haversine central angle, in radians, between a tour's
// start location and the point bound to $1 (lat) and $2 (lng).
const angleSQL = `2 * asin(least(1, sqrt(
	power(sin(radians(((doc #>> '{startLocation,coordinates,1}')::double precision) - $1) / 2), 2) +
	cos(radians($1)) * cos(radians((doc #>> '{startLocation,coordinates,1}')::double precision)) *
	power(sin(radians(((doc #>> '{startLocation,coordinates,0}')::double precision) - $2) / 2), 2)
)))`

// PostgresTourStore implements the store.TourStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTourStore struct {
	*Collection[domain.Tour, *domain.Tour]
}

// Ensure PostgresTourStore implements store.TourStore interface
var _ store.TourStore = (*PostgresTourStore)(nil)

// NewPostgresTourStore creates a new PostgreSQL implementation of the TourStore interface.
func NewPostgresTourStore(db store.DBTX, logger *slog.Logger) *PostgresTourStore {
	return &PostgresTourStore{
		Collection: NewCollection[domain.Tour](db, ToursTable, domain.TourSchema, tourArrays, logger),
	}
}

// Stats implements store.TourStore.Stats.
func (s *PostgresTourStore) Stats(ctx context.Context, minRating float64) ([]store.TourStats, error) {
	b := newBuilder(s.arrays)
	where := b.Where(s.visible([]query.Condition{
		{Field: "ratingsAverage", Op: query.OpGte, Value: minRating},
	}))
	stmt := fmt.Sprintf(`
		SELECT upper(doc ->> 'difficulty') AS difficulty,
		       count(*),
		       COALESCE(sum((doc ->> 'ratingsQuantity')::double precision), 0)::bigint,
		       avg((doc ->> 'ratingsAverage')::double precision),
		       avg((doc ->> 'price')::double precision) AS avg_price,
		       min((doc ->> 'price')::double precision),
		       max((doc ->> 'price')::double precision)
		FROM %s
		WHERE %s
		GROUP BY 1
		ORDER BY avg_price ASC, difficulty ASC`, s.table, where)

	rows, err := s.db.QueryContext(ctx, stmt, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tour stats: %w", MapError(s.table, err))
	}
	defer func() { _ = rows.Close() }()

	stats := []store.TourStats{}
	for rows.Next() {
		var st store.TourStats
		if err := rows.Scan(
			&st.Difficulty,
			&st.NumTours,
			&st.NumRatings,
			&st.AvgRating,
			&st.AvgPrice,
			&st.MinPrice,
			&st.MaxPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tour stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// MonthlyPlan implements store.TourStore.MonthlyPlan.
func (s *PostgresTourStore) MonthlyPlan(ctx context.Context, year int) ([]store.MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	b := newBuilder(s.arrays)
	where := b.Where(s.visible(nil))
	stmt := fmt.Sprintf(`
		SELECT month, count(*), json_agg(name ORDER BY id)
		FROM (
			SELECT extract(month FROM (d.v ->> '$date')::timestamptz AT TIME ZONE 'UTC')::int AS month,
			       doc ->> 'name' AS name,
			       id
			FROM %s,
			     jsonb_array_elements(
			         CASE WHEN jsonb_typeof(doc -> 'startDates') = 'array' THEN doc -> 'startDates' ELSE '[]'::jsonb END
			     ) AS d(v)
			WHERE %s
			  AND (d.v ->> '$date')::timestamptz >= %s
			  AND (d.v ->> '$date')::timestamptz < %s
		) starts
		GROUP BY month
		ORDER BY count(*) DESC, month ASC
		LIMIT %s`, s.table, where, b.arg(from), b.arg(to), b.arg(store.MonthlyPlanLimit))

	rows, err := s.db.QueryContext(ctx, stmt, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly plan: %w", MapError(s.table, err))
	}
	defer func() { _ = rows.Close() }()

	plan := []store.MonthlyPlan{}
	for rows.Next() {
		var (
			m     store.MonthlyPlan
			names []byte
		)
		if err := rows.Scan(&m.Month, &m.NumTourStarts, &names); err != nil {
			return nil, fmt.Errorf("failed to scan monthly plan: %w", err)
		}
		if err := json.Unmarshal(names, &m.Tours); err != nil {
			return nil, fmt.Errorf("failed to decode tour names: %w", err)
		}
		plan = append(plan, m)
	}
	return plan, rows.Err()
}

// Within implements store.TourStore.Within.
func (s *PostgresTourStore) Within(ctx context.Context, center domain.LatLng, radius float64) ([]*domain.Tour, error) {
	b := newBuilder(s.arrays)
	b.arg(center.Lat)
	b.arg(center.Lng)
	where := b.Where(s.visible(nil))
	stmt := fmt.Sprintf(`SELECT doc FROM %s WHERE %s AND %s <= %s ORDER BY %s`,
		s.table, where, angleSQL, b.arg(radius), idColumn)
	return s.query(ctx, stmt, b.args...)
}

// Distances implements store.TourStore.Distances.
func (s *PostgresTourStore) Distances(
	ctx context.Context,
	center domain.LatLng,
	multiplier float64,
) ([]store.TourDistance, error) {
	b := newBuilder(s.arrays)
	b.arg(center.Lat)
	b.arg(center.Lng)
	where := b.Where(s.visible(nil))
	stmt := fmt.Sprintf(`
		SELECT id, doc ->> 'name', %s * %s * %s AS distance
		FROM %s
		WHERE %s AND doc #> '{startLocation,coordinates}' IS NOT NULL
		ORDER BY distance ASC, id ASC`,
		angleSQL, b.arg(domain.EarthRadiusMeters), b.arg(multiplier), s.table, where)

	rows, err := s.db.QueryContext(ctx, stmt, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute distances: %w", MapError(s.table, err))
	}
	defer func() { _ = rows.Close() }()

	distances := []store.TourDistance{}
	for rows.Next() {
		var (
			d  store.TourDistance
			id string
		)
		if err := rows.Scan(&id, &d.Name, &d.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan distance: %w", err)
		}
		if d.ID, err = primitive.ObjectIDFromHex(id); err != nil {
			return nil, fmt.Errorf("%w: tour id %q", store.ErrInvalidEntity, id)
		}
		distances = append(distances, d)
	}
	return distances, rows.Err()
}

// SetRatings implements store.TourStore.SetRatings.
func (s *PostgresTourStore) SetRatings(ctx context.Context, id primitive.ObjectID, quantity int, average float64) error {
	stmt := fmt.Sprintf(`
		UPDATE %s
		SET doc = doc || jsonb_build_object('ratingsQuantity', $2::int, 'ratingsAverage', $3::double precision)
		WHERE %s = $1`, s.table, idColumn)

	result, err := s.db.ExecContext(ctx, stmt, id.Hex(), quantity, average)
	if err != nil {
		return fmt.Errorf("failed to set tour ratings: %w", MapError(s.table, err))
	}
	return CheckRowsAffected(result, "tour")
}
