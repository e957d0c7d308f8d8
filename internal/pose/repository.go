package pose

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handsense/handsense-core/internal/hand"
)

// Repository defines preset persistence operations. The abstraction
// keeps the API layer testable without a database.
type Repository interface {
	// GetByID retrieves a preset by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*Preset, error)

	// GetByName retrieves a preset by its unique name.
	GetByName(ctx context.Context, name string) (*Preset, error)

	// List retrieves all presets ordered by name.
	List(ctx context.Context) ([]Preset, error)

	// Create inserts a new preset, assigning an id if empty.
	// Returns ErrExists on a name collision.
	Create(ctx context.Context, preset *Preset) error

	// Update modifies an existing preset. Returns ErrNotFound if absent.
	Update(ctx context.Context, preset *Preset) error

	// Delete removes a preset by id. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository over SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed preset repository. The db
// parameter should be an open connection with migrations applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const presetColumns = "id, name, description, joints, speed, force, created_at, updated_at"

// GetByID retrieves a preset by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Preset, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+presetColumns+" FROM poses WHERE id = ?", id)

	preset, err := scanPreset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying preset by id: %w", err)
	}
	return preset, nil
}

// GetByName retrieves a preset by its unique name.
func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*Preset, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+presetColumns+" FROM poses WHERE name = ?", name)

	preset, err := scanPreset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying preset by name: %w", err)
	}
	return preset, nil
}

// List retrieves all presets ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Preset, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+presetColumns+" FROM poses ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	defer rows.Close()

	var presets []Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning preset: %w", err)
		}
		presets = append(presets, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating presets: %w", err)
	}
	return presets, nil
}

// Create inserts a new preset. An empty ID gets a fresh UUID; the
// vectors are clamped onto the device ranges before storage.
func (r *SQLiteRepository) Create(ctx context.Context, preset *Preset) error {
	if err := preset.Validate(); err != nil {
		return err
	}
	preset.Normalize()

	if preset.ID == "" {
		preset.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	preset.CreatedAt = now
	preset.UpdatedAt = now

	joints, speed, force, err := marshalVectors(preset)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO poses (id, name, description, joints, speed, force, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		preset.ID, preset.Name, preset.Description,
		joints, speed, force,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting preset: %w", err)
	}
	return nil
}

// Update modifies an existing preset.
func (r *SQLiteRepository) Update(ctx context.Context, preset *Preset) error {
	if err := preset.Validate(); err != nil {
		return err
	}
	preset.Normalize()
	preset.UpdatedAt = time.Now().UTC()

	joints, speed, force, err := marshalVectors(preset)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE poses
		SET name = ?, description = ?, joints = ?, speed = ?, force = ?, updated_at = ?
		WHERE id = ?`,
		preset.Name, preset.Description,
		joints, speed, force,
		preset.UpdatedAt.Format(time.RFC3339),
		preset.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrExists
		}
		return fmt.Errorf("updating preset: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a preset by id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM poses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting preset: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(s scanner) (*Preset, error) {
	var (
		p                    Preset
		joints, speed, force string
		createdAt, updatedAt string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description,
		&joints, &speed, &force, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := unmarshalVector(joints, &p.Joints); err != nil {
		return nil, fmt.Errorf("decoding joints: %w", err)
	}
	if err := unmarshalVector(speed, &p.Speed); err != nil {
		return nil, fmt.Errorf("decoding speed: %w", err)
	}
	if err := unmarshalVector(force, &p.Force); err != nil {
		return nil, fmt.Errorf("decoding force: %w", err)
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled
	return &p, nil
}

func marshalVectors(p *Preset) (joints, speed, force string, err error) {
	j, err := json.Marshal(p.Joints)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding joints: %w", err)
	}
	s, err := json.Marshal(p.Speed)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding speed: %w", err)
	}
	f, err := json.Marshal(p.Force)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding force: %w", err)
	}
	return string(j), string(s), string(f), nil
}

func unmarshalVector(data string, v *hand.JointVector) error {
	return json.Unmarshal([]byte(data), v)
}

// isUniqueViolation detects SQLite unique constraint failures without
// depending on driver error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
