package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ayusman/mudra/internal/gesture"
)

var (
	// ErrInvalidProfile is returned for a profile without a name or with
	// an invalid calibration.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrDuplicateName is returned when another profile already uses the name.
	ErrDuplicateName = errors.New("profile name already exists")
)

// Profile is a named calibration the user can switch to.
type Profile struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Calibration gesture.Calibration `json:"calibration"`
	Active      bool                `json:"active"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (p *Profile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if err := p.Calibration.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return nil
}

// ProfileRepository provides CRUD operations for calibration profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, calibration, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var data string
	if err := row.Scan(&p.ID, &p.Name, &data, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	// Fields missing from older rows keep their defaults.
	p.Calibration = gesture.DefaultCalibration()
	if err := json.Unmarshal([]byte(data), &p.Calibration); err != nil {
		return nil, fmt.Errorf("decode calibration of profile %s: %w", p.ID, err)
	}
	return p, nil
}

// Create inserts p, assigning an ID when it has none. New profiles are
// inactive; use Activate to switch to them.
func (r *ProfileRepository) Create(p *Profile) error {
	if err := p.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p.Calibration)
	if err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Active = false

	_, err = r.db.Exec(
		`INSERT INTO calibration_profiles (id, name, calibration, active, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		p.ID, p.Name, string(data), p.CreatedAt, p.UpdatedAt,
	)
	return constraintError(err)
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	return r.get(`SELECT `+profileColumns+` FROM calibration_profiles WHERE id = ?`, id)
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	return r.get(`SELECT `+profileColumns+` FROM calibration_profiles WHERE name = ?`, name)
}

// Active returns the active profile, or ErrNotFound when none is active.
func (r *ProfileRepository) Active() (*Profile, error) {
	return r.get(`SELECT ` + profileColumns + ` FROM calibration_profiles WHERE active = 1`)
}

func (r *ProfileRepository) get(query string, args ...any) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns all profiles ordered by name.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM calibration_profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update saves the name and calibration of p. The active flag is not
// changed; use Activate.
func (r *ProfileRepository) Update(p *Profile) error {
	if err := p.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p.Calibration)
	if err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}

	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE calibration_profiles SET name = ?, calibration = ?, updated_at = ? WHERE id = ?`,
		p.Name, string(data), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return constraintError(err)
	}
	return expectRow(result)
}

// Delete removes a profile. Deleting the active profile leaves no profile active.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM calibration_profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

// Activate makes id the only active profile and returns it.
func (r *ProfileRepository) Activate(id string) (*Profile, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE calibration_profiles SET active = 0 WHERE active = 1`); err != nil {
		return nil, err
	}
	result, err := tx.Exec(`UPDATE calibration_profiles SET active = 1 WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if err := expectRow(result); err != nil {
		return nil, err
	}

	p, err := scanProfile(tx.QueryRow(`SELECT `+profileColumns+` FROM calibration_profiles WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate clears the active profile, if any.
func (r *ProfileRepository) Deactivate() error {
	_, err := r.db.Exec(`UPDATE calibration_profiles SET active = 0 WHERE active = 1`)
	return err
}

func expectRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// constraintError maps a constraint violation to ErrDuplicateName; the
// name is the only unique column callers control.
func constraintError(err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) && serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return ErrDuplicateName
	}
	return err
}
