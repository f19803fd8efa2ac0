package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/immersive-lab/lab-api/internal/models"
)

const memberColumns = `id, name, COALESCE(login_id,''), COALESCE(password,''), role, admin,
	COALESCE(email,''), COALESCE(phone,''), COALESCE(student_id,''), COALESCE(research_area,''),
	COALESCE(bio,''), COALESCE(degree,''), COALESCE(photo_url,''), sort_order`

// MemberStore persists lab members in Postgres.
type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	var m models.Member
	err := row.Scan(&m.ID, &m.Name, &m.LoginID, &m.Password, &m.Role, &m.Admin,
		&m.Email, &m.Phone, &m.StudentID, &m.ResearchArea,
		&m.Bio, &m.Degree, &m.PhotoURL, &m.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MemberStore) findOne(ctx context.Context, where string, arg any) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE `+where, arg)
	return scanMember(row)
}

func (s *MemberStore) FindByID(ctx context.Context, id int64) (*models.Member, error) {
	return s.findOne(ctx, `id = $1`, id)
}

func (s *MemberStore) FindByLoginID(ctx context.Context, loginID string) (*models.Member, error) {
	return s.findOne(ctx, `login_id = $1`, loginID)
}

func (s *MemberStore) FindByName(ctx context.Context, name string) (*models.Member, error) {
	return s.findOne(ctx, `name = $1`, name)
}

func (s *MemberStore) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	return s.findOne(ctx, `email = $1`, email)
}

func (s *MemberStore) FindByStudentID(ctx context.Context, studentID string) (*models.Member, error) {
	return s.findOne(ctx, `student_id = $1`, studentID)
}

// List returns every member ordered by display order, then name.
func (s *MemberStore) List(ctx context.Context) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *MemberStore) Create(ctx context.Context, m *models.Member) (*models.Member, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO members (name, login_id, password, role, admin, email, phone, student_id, research_area, bio, degree, photo_url, sort_order)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4, $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), NULLIF($9,''), NULLIF($10,''), NULLIF($11,''), NULLIF($12,''), $13)
		RETURNING id
	`, m.Name, m.LoginID, m.Password, m.Role, m.Admin, m.Email, m.Phone, m.StudentID, m.ResearchArea, m.Bio, m.Degree, m.PhotoURL, m.SortOrder).Scan(&m.ID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Update writes every mutable column of the member row.
func (s *MemberStore) Update(ctx context.Context, m *models.Member) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET name = $2, password = NULLIF($3,''), role = $4, admin = $5,
			email = NULLIF($6,''), phone = NULLIF($7,''), student_id = NULLIF($8,''),
			research_area = NULLIF($9,''), bio = NULLIF($10,''), degree = NULLIF($11,''),
			photo_url = NULLIF($12,''), sort_order = $13
		WHERE id = $1
	`, m.ID, m.Name, m.Password, m.Role, m.Admin, m.Email, m.Phone, m.StudentID, m.ResearchArea, m.Bio, m.Degree, m.PhotoURL, m.SortOrder)
	return err
}

// SaveOrder assigns sort_order in steps of 10 following the given id order.
func (s *MemberStore) SaveOrder(ctx context.Context, orderedIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order := 10
	for _, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, `UPDATE members SET sort_order = $2 WHERE id = $1`, id, order); err != nil {
			return err
		}
		order += 10
	}
	return tx.Commit()
}

// Delete removes a member after clearing every reference held by other
// entities: attendance rows go away, authored notices, projects and events
// keep existing with a nulled creator.
func (s *MemberStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	steps := []string{
		`DELETE FROM attendance WHERE member_id = $1`,
		`UPDATE notices SET author_id = NULL WHERE author_id = $1`,
		`UPDATE projects SET created_by = NULL WHERE created_by = $1`,
		`UPDATE events SET created_by = NULL WHERE created_by = $1`,
		`UPDATE lab_info SET director_id = NULL WHERE director_id = $1`,
		`DELETE FROM members WHERE id = $1`,
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
