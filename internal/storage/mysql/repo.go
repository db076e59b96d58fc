package mysql

import (
	"context"
	"database/sql"

	"foodfinder/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) InsertCredential(ctx context.Context, c domain.Credential) error {
	_, err := r.db.ExecContext(ctx, insertCredentialSQL, c.Email, c.Username, c.PasswordHash)
	return err
}

func (r *Repo) FindCredential(ctx context.Context, email string) (domain.Credential, error) {
	var c domain.Credential
	err := r.db.QueryRowContext(ctx, selectCredentialSQL, email).
		Scan(&c.Email, &c.Username, &c.PasswordHash)
	if err == sql.ErrNoRows {
		return domain.Credential{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Credential{}, err
	}
	return c, nil
}

func (r *Repo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, emailExistsSQL, email).Scan(&exists)
	return exists, err
}

func (r *Repo) UpsertRestaurant(ctx context.Context, rec domain.RestaurantRecord) error {
	_, err := r.db.ExecContext(ctx, upsertRestaurantSQL,
		rec.Title,
		valStr(rec.Price),
		rec.CategoryName,
		rec.Address,
		rec.Neighborhood,
		rec.Street,
		rec.City,
		rec.State,
		rec.CountryCode,
		valStr(rec.Phone),
		valStr(rec.PhoneUnformatted),
		rec.Latitude,
		rec.Longitude,
		rec.PlusCode,
		valF64(rec.TotalScore),
		rec.ImageURL,
	)
	return err
}

func (r *Repo) ListRestaurants(ctx context.Context) ([]domain.RestaurantRecord, error) {
	rows, err := r.db.QueryContext(ctx, listRestaurantsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RestaurantRecord
	for rows.Next() {
		var rec domain.RestaurantRecord
		var (
			price, phone, phoneU sql.NullString
			score                sql.NullFloat64
		)
		if err := rows.Scan(
			&rec.Title,
			&price,
			&rec.CategoryName,
			&rec.Address,
			&rec.Neighborhood,
			&rec.Street,
			&rec.City,
			&rec.State,
			&rec.CountryCode,
			&phone,
			&phoneU,
			&rec.Latitude,
			&rec.Longitude,
			&rec.PlusCode,
			&score,
			&rec.ImageURL,
		); err != nil {
			return nil, err
		}
		if price.Valid {
			s := price.String
			rec.Price = &s
		}
		if phone.Valid {
			s := phone.String
			rec.Phone = &s
		}
		if phoneU.Valid {
			s := phoneU.String
			rec.PhoneUnformatted = &s
		}
		if score.Valid {
			f := score.Float64
			rec.TotalScore = &f
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
