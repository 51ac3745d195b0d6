package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/camden-git/clipcatalog/models"
)

// ObjectQuery selects objects of one detection run. Empty Classes and nil
// bounds leave that dimension unconstrained; bounds are inclusive.
type ObjectQuery struct {
	DetectionID uint
	Classes     []string
	From        *time.Time
	To          *time.Time
}

// ObjectQuerier runs hand-built queries against the object tables
type ObjectQuerier struct {
	DB      *sql.DB
	builder sq.StatementBuilderType
}

func NewObjectQuerier(db *sql.DB, driver string) *ObjectQuerier {
	return &ObjectQuerier{DB: db, builder: builderFor(driver)}
}

// QueryObjects returns matching objects ordered by time, with ObjectClass populated
func (q *ObjectQuerier) QueryObjects(query ObjectQuery) ([]models.Object, error) {
	queryBuilder := q.builder.Select("o.id", "o.object_detection_id", "o.object_class_id", "c.name", "o.time").
		From("objects o").
		Join("object_classes c ON c.id = o.object_class_id").
		Where(sq.Eq{"o.object_detection_id": query.DetectionID}).
		OrderBy("o.time ASC", "o.id ASC")

	if len(query.Classes) > 0 {
		queryBuilder = queryBuilder.Where(sq.Eq{"c.name": query.Classes})
	}
	if query.From != nil {
		queryBuilder = queryBuilder.Where(sq.GtOrEq{"o.time": query.From.UTC()})
	}
	if query.To != nil {
		queryBuilder = queryBuilder.Where(sq.LtOrEq{"o.time": query.To.UTC()})
	}

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for QueryObjects: %w", err)
	}

	rows, err := q.DB.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects for detection %d: %w", query.DetectionID, err)
	}
	defer rows.Close()

	objects := []models.Object{}
	for rows.Next() {
		var obj models.Object
		var class models.ObjectClass
		if err := rows.Scan(&obj.ID, &obj.ObjectDetectionID, &obj.ObjectClassID, &class.Name, &obj.Time); err != nil {
			return nil, fmt.Errorf("failed to scan object row: %w", err)
		}
		class.ID = obj.ObjectClassID
		obj.ObjectClass = &class
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating object rows: %w", err)
	}
	return objects, nil
}

// CountObjectsByClass returns the number of objects per class label in a detection run
func (q *ObjectQuerier) CountObjectsByClass(detectionID uint) (map[string]int, error) {
	queryBuilder := q.builder.Select("c.name", "COUNT(o.id)").
		From("objects o").
		Join("object_classes c ON c.id = o.object_class_id").
		Where(sq.Eq{"o.object_detection_id": detectionID}).
		GroupBy("c.name")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for CountObjectsByClass: %w", err)
	}

	rows, err := q.DB.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count objects for detection %d: %w", detectionID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan object count row: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating object count rows: %w", err)
	}
	return counts, nil
}
