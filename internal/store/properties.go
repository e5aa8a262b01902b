package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

const saleColumns = `id, user_id, title, description, price, property_type, bedrooms, bathrooms,
	area, location, address, contact_name, contact_phone, contact_email, images, created_at, updated_at`

const rentalColumns = `id, user_id, title, description, monthly_rent, security_deposit, property_type,
	bedrooms, bathrooms, parking, area, furnished, location, address, available_from, lease_duration,
	contact_name, contact_phone, contact_email, amenities, images, created_at, updated_at`

// orderable whitelists the columns a Query may sort on, per table.
var orderable = map[models.Kind]map[string]bool{
	models.KindSale:   {"created_at": true, "price": true, "area": true, "title": true},
	models.KindRental: {"created_at": true, "monthly_rent": true, "area": true, "title": true},
}

// listQuery builds the SELECT for q with incremental $N placeholders.
func listQuery(kind models.Kind, columns string, q models.Query) (string, []any, error) {
	query := "SELECT " + columns + " FROM " + kind.Table()
	args := []any{}
	idx := 1

	if q.OwnerID != "" {
		query += fmt.Sprintf(" WHERE user_id = $%d", idx)
		args = append(args, q.OwnerID)
		idx++
	}

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	if !orderable[kind][orderBy] {
		return "", nil, apperr.Newf(apperr.Validation, "store.listQuery", "cannot order %s by %q", kind.Table(), orderBy)
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id", orderBy, dir)

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, q.Limit)
	}
	return query, args, nil
}

func scanSale(row pgx.Row) (*models.SaleProperty, error) {
	var p models.SaleProperty
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Price, &p.PropertyType,
		&p.Bedrooms, &p.Bathrooms, &p.Area, &p.Location, &p.Address,
		&p.ContactName, &p.ContactPhone, &p.ContactEmail, &p.Images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanRental(row pgx.Row) (*models.RentalProperty, error) {
	var p models.RentalProperty
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.MonthlyRent, &p.SecurityDeposit,
		&p.PropertyType, &p.Bedrooms, &p.Bathrooms, &p.Parking, &p.Area, &p.Furnished,
		&p.Location, &p.Address, &p.AvailableFrom, &p.LeaseDuration,
		&p.ContactName, &p.ContactPhone, &p.ContactEmail, &p.Amenities, &p.Images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) ListSale(ctx context.Context, q models.Query) ([]models.SaleProperty, error) {
	const op = "PostgresStore.ListSale"
	query, args, err := listQuery(models.KindSale, saleColumns, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SaleProperty, error) {
		p, err := scanSale(row)
		if err != nil {
			return models.SaleProperty{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func (s *PostgresStore) ListRental(ctx context.Context, q models.Query) ([]models.RentalProperty, error) {
	const op = "PostgresStore.ListRental"
	query, args, err := listQuery(models.KindRental, rentalColumns, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RentalProperty, error) {
		p, err := scanRental(row)
		if err != nil {
			return models.RentalProperty{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func (s *PostgresStore) GetSale(ctx context.Context, id string) (*models.SaleProperty, error) {
	p, err := scanSale(s.pool.QueryRow(ctx, "SELECT "+saleColumns+" FROM sale_properties WHERE id = $1", id))
	if err != nil {
		return nil, classify("PostgresStore.GetSale", err)
	}
	return p, nil
}

func (s *PostgresStore) GetRental(ctx context.Context, id string) (*models.RentalProperty, error) {
	p, err := scanRental(s.pool.QueryRow(ctx, "SELECT "+rentalColumns+" FROM rental_properties WHERE id = $1", id))
	if err != nil {
		return nil, classify("PostgresStore.GetRental", err)
	}
	return p, nil
}

func (s *PostgresStore) InsertSale(ctx context.Context, p *models.SaleProperty) (*models.SaleProperty, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO sale_properties (user_id, title, description, price, property_type, bedrooms,
			bathrooms, area, location, address, contact_name, contact_phone, contact_email, images)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING `+saleColumns,
		p.OwnerID, p.Title, p.Description, p.Price, p.PropertyType, p.Bedrooms,
		p.Bathrooms, p.Area, p.Location, p.Address, p.ContactName, p.ContactPhone, p.ContactEmail, nonNil(p.Images),
	)
	created, err := scanSale(row)
	if err != nil {
		return nil, classify("PostgresStore.InsertSale", err)
	}
	return created, nil
}

func (s *PostgresStore) InsertRental(ctx context.Context, p *models.RentalProperty) (*models.RentalProperty, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO rental_properties (user_id, title, description, monthly_rent, security_deposit,
			property_type, bedrooms, bathrooms, parking, area, furnished, location, address,
			available_from, lease_duration, contact_name, contact_phone, contact_email, amenities, images)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		 RETURNING `+rentalColumns,
		p.OwnerID, p.Title, p.Description, p.MonthlyRent, p.SecurityDeposit,
		p.PropertyType, p.Bedrooms, p.Bathrooms, p.Parking, p.Area, p.Furnished, p.Location, p.Address,
		p.AvailableFrom, p.LeaseDuration, p.ContactName, p.ContactPhone, p.ContactEmail,
		nonNil(p.Amenities), nonNil(p.Images),
	)
	created, err := scanRental(row)
	if err != nil {
		return nil, classify("PostgresStore.InsertRental", err)
	}
	return created, nil
}

// DeleteSale removes a row only when ownerID owns it; otherwise NotFound.
func (s *PostgresStore) DeleteSale(ctx context.Context, id, ownerID string) error {
	return s.deleteOwned(ctx, "PostgresStore.DeleteSale", models.KindSale, id, ownerID)
}

func (s *PostgresStore) DeleteRental(ctx context.Context, id, ownerID string) error {
	return s.deleteOwned(ctx, "PostgresStore.DeleteRental", models.KindRental, id, ownerID)
}

func (s *PostgresStore) deleteOwned(ctx context.Context, op string, kind models.Kind, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+kind.Table()+" WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return classify(op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundErr(op, nil)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
