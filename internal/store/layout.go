package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidLayout is returned by Create for a layout without a name or
// without tongues.
var ErrInvalidLayout = errors.New("invalid layout")

// Tongue is one calibrated tongue: a box in the source image and its
// place in playing order.
type Tongue struct {
	Position   int     `json:"position"` // 1-based playing order
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
	IsFallback bool    `json:"is_fallback"`
}

// Layout is a saved calibration.
type Layout struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ImagePath     string    `json:"image_path"`
	ImageWidth    int       `json:"image_width"`
	ImageHeight   int       `json:"image_height"`
	ExpectedCount int       `json:"expected_count"`
	Backend       string    `json:"backend"`
	Tongues       []Tongue  `json:"tongues"`
	CreatedAt     time.Time `json:"created_at"`
}

// LayoutRepository provides CRUD operations for layouts.
type LayoutRepository struct {
	db *sql.DB
}

// Layouts returns the layout repository for this store.
func (s *Store) Layouts() *LayoutRepository {
	return &LayoutRepository{db: s.db}
}

// Create inserts l and its tongues in one transaction. An empty ID is
// filled with a new UUID; tongue positions are renumbered 1..n in slice
// order.
func (r *LayoutRepository) Create(l *Layout) error {
	if l.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLayout)
	}
	if len(l.Tongues) == 0 {
		return fmt.Errorf("%w: no tongues selected", ErrInvalidLayout)
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.CreatedAt = time.Now().UTC()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO layouts (id, name, image_path, image_width, image_height, expected_count, backend, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.ImagePath, l.ImageWidth, l.ImageHeight, l.ExpectedCount, l.Backend, l.CreatedAt,
	)
	if err != nil {
		return err
	}

	for i := range l.Tongues {
		t := &l.Tongues[i]
		t.Position = i + 1
		_, err := tx.Exec(
			`INSERT INTO layout_tongues (layout_id, position, x, y, width, height, confidence, is_fallback)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, t.Position, t.X, t.Y, t.Width, t.Height, t.Confidence, t.IsFallback,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a layout and its tongues.
func (r *LayoutRepository) GetByID(id string) (*Layout, error) {
	l := &Layout{}

	err := r.db.QueryRow(
		`SELECT id, name, image_path, image_width, image_height, expected_count, backend, created_at
		 FROM layouts WHERE id = ?`,
		id,
	).Scan(&l.ID, &l.Name, &l.ImagePath, &l.ImageWidth, &l.ImageHeight, &l.ExpectedCount, &l.Backend, &l.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tongues, err := r.tongues(l.ID)
	if err != nil {
		return nil, err
	}
	l.Tongues = tongues
	return l, nil
}

// List retrieves all layouts, newest first. Tongues are included.
func (r *LayoutRepository) List() ([]*Layout, error) {
	rows, err := r.db.Query(
		`SELECT id, name, image_path, image_width, image_height, expected_count, backend, created_at
		 FROM layouts ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var layouts []*Layout
	for rows.Next() {
		l := &Layout{}
		err := rows.Scan(&l.ID, &l.Name, &l.ImagePath, &l.ImageWidth, &l.ImageHeight, &l.ExpectedCount, &l.Backend, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Close before the per-layout queries: the store runs on one connection.
	rows.Close()

	for _, l := range layouts {
		if l.Tongues, err = r.tongues(l.ID); err != nil {
			return nil, err
		}
	}
	return layouts, nil
}

// Delete removes a layout; its tongues go with it.
func (r *LayoutRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *LayoutRepository) tongues(layoutID string) ([]Tongue, error) {
	rows, err := r.db.Query(
		`SELECT position, x, y, width, height, confidence, is_fallback
		 FROM layout_tongues WHERE layout_id = ? ORDER BY position`,
		layoutID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tongues := []Tongue{}
	for rows.Next() {
		var t Tongue
		if err := rows.Scan(&t.Position, &t.X, &t.Y, &t.Width, &t.Height, &t.Confidence, &t.IsFallback); err != nil {
			return nil, err
		}
		tongues = append(tongues, t)
	}
	return tongues, rows.Err()
}
