package db

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/tracelight/casegate/internal/natsort"
)

// GetProfile returns the stored profile with its cases in natural case-number
// order, or nil if no record exists for uid.
func (s *Store) GetProfile(uid string) (*Profile, error) {
	var p Profile
	err := s.db.QueryRow(
		`SELECT uid, email, first_name, last_name, permitted, created_at, updated_at
		 FROM profiles WHERE uid = ?`, uid,
	).Scan(&p.UID, &p.Email, &p.FirstName, &p.LastName, &p.Permitted, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	cases, err := s.listCases(uid)
	if err != nil {
		return nil, err
	}
	p.Cases = cases
	return &p, nil
}

// PutProfile writes the full record, replacing any existing row and its case
// list in one transaction. The caller is responsible for merge semantics; the
// store is last-writer-wins at record granularity.
func (s *Store) PutProfile(p *Profile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO profiles (uid, email, first_name, last_name, permitted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
		   email = excluded.email,
		   first_name = excluded.first_name,
		   last_name = excluded.last_name,
		   permitted = excluded.permitted,
		   updated_at = excluded.updated_at`,
		p.UID, p.Email, p.FirstName, p.LastName, p.Permitted, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM profile_cases WHERE uid = ?`, p.UID); err != nil {
		return fmt.Errorf("clear cases: %w", err)
	}
	for _, c := range p.Cases {
		if _, err := tx.Exec(
			`INSERT INTO profile_cases (uid, case_number, created_at) VALUES (?, ?, ?)`,
			p.UID, c.CaseNumber, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert case %q: %w", c.CaseNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// DeleteProfile removes the record and its cases. Returns true if a row was
// deleted; deleting an absent uid is not an error.
func (s *Store) DeleteProfile(uid string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM profiles WHERE uid = ?`, uid)
	if err != nil {
		return false, fmt.Errorf("delete profile: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) listCases(uid string) ([]CaseRef, error) {
	rows, err := s.db.Query(
		`SELECT case_number, created_at FROM profile_cases WHERE uid = ?`, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []CaseRef
	for rows.Next() {
		var c CaseRef
		if err := rows.Scan(&c.CaseNumber, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(cases, func(i, j int) bool {
		return natsort.Less(cases[i].CaseNumber, cases[j].CaseNumber)
	})
	return cases, nil
}
