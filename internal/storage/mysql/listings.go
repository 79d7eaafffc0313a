package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	"rentals/internal/domain"
)

/********** properties **********/

func scanProperty(s scanner) (domain.Property, error) {
	var p domain.Property
	var addr, city, country sql.NullString
	var ptype string
	var amenities []byte
	if err := s.Scan(
		&p.PropertyID, &p.OwnerID, &p.Title, &p.Description,
		&addr, &city, &country,
		&p.PricePerNight, &p.MaxGuests, &ptype, &amenities,
	); err != nil {
		return domain.Property{}, err
	}
	p.AddressLine1 = nullStr(addr)
	p.City = nullStr(city)
	p.Country = nullStr(country)
	p.Type = domain.PropertyType(ptype)
	p.Amenities = []string{}
	if len(amenities) > 0 {
		if err := json.Unmarshal(amenities, &p.Amenities); err != nil {
			return domain.Property{}, err
		}
	}
	return p, nil
}

func propertyArgs(p domain.Property) []any {
	amen := p.Amenities
	if amen == nil {
		amen = []string{}
	}
	b, _ := json.Marshal(amen)
	return []any{
		p.PropertyID, p.OwnerID, p.Title, p.Description,
		valStr(p.AddressLine1), valStr(p.City), valStr(p.Country),
		p.PricePerNight, p.MaxGuests, string(p.Type), string(b),
	}
}

type propertyRepo struct{ db DBTX }

func (r propertyRepo) Create(ctx context.Context, p domain.Property) (domain.Property, error) {
	_, err := r.db.ExecContext(ctx, insertPropertiesPrefix+propertyTuple, propertyArgs(p)...)
	return p, wrap(err, "insert property")
}

func (r propertyRepo) CreateMany(ctx context.Context, ps []domain.Property) (int64, error) {
	n, err := insertMany(ctx, r.db, insertPropertiesPrefix, propertyTuple, "property_id", ps, propertyArgs)
	return n, wrap(err, "insert properties")
}

func (r propertyRepo) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	p, err := findOne(ctx, r.db, selectPropertySQL, scanProperty, id)
	return p, wrap(err, "select property")
}

func (r propertyRepo) FindByOwnerID(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	ps, err := findAll(ctx, r.db, selectPropertiesByOwnerSQL, scanProperty, ownerID)
	return ps, wrap(err, "select properties by owner")
}

func (r propertyRepo) Update(ctx context.Context, p domain.Property) (*domain.Property, error) {
	args := propertyArgs(p)
	// SET columns first, key last
	args = append(args[1:], args[0])
	if _, err := r.db.ExecContext(ctx, updatePropertySQL, args...); err != nil {
		return nil, wrap(err, "update property")
	}
	return r.FindByID(ctx, p.PropertyID)
}

func (r propertyRepo) Delete(ctx context.Context, id string) (*domain.Property, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, deletePropertySQL, id); err != nil {
		return nil, wrap(err, "delete property")
	}
	return p, nil
}

/********** photos **********/

func scanPhoto(s scanner) (domain.Photo, error) {
	var p domain.Photo
	var caption, room sql.NullString
	if err := s.Scan(&p.PhotoID, &p.PropertyID, &p.ImageURL, &caption, &room); err != nil {
		return domain.Photo{}, err
	}
	p.Caption = nullStr(caption)
	p.RoomType = nullStr(room)
	return p, nil
}

func photoArgs(p domain.Photo) []any {
	return []any{p.PhotoID, p.PropertyID, p.ImageURL, valStr(p.Caption), valStr(p.RoomType)}
}

type photoRepo struct{ db DBTX }

func (r photoRepo) Create(ctx context.Context, p domain.Photo) (domain.Photo, error) {
	_, err := r.db.ExecContext(ctx, insertPhotosPrefix+photoTuple, photoArgs(p)...)
	return p, wrap(err, "insert photo")
}

func (r photoRepo) CreateMany(ctx context.Context, ps []domain.Photo) (int64, error) {
	n, err := insertMany(ctx, r.db, insertPhotosPrefix, photoTuple, "photo_id", ps, photoArgs)
	return n, wrap(err, "insert photos")
}

func (r photoRepo) FindByID(ctx context.Context, id string) (*domain.Photo, error) {
	p, err := findOne(ctx, r.db, selectPhotoSQL, scanPhoto, id)
	return p, wrap(err, "select photo")
}

func (r photoRepo) FindByPropertyID(ctx context.Context, propertyID string) ([]domain.Photo, error) {
	ps, err := findAll(ctx, r.db, selectPhotosByPropertySQL, scanPhoto, propertyID)
	return ps, wrap(err, "select photos by property")
}

func (r photoRepo) Update(ctx context.Context, p domain.Photo) (*domain.Photo, error) {
	if _, err := r.db.ExecContext(ctx, updatePhotoSQL, p.PropertyID, p.ImageURL, valStr(p.Caption), valStr(p.RoomType), p.PhotoID); err != nil {
		return nil, wrap(err, "update photo")
	}
	return r.FindByID(ctx, p.PhotoID)
}

func (r photoRepo) Delete(ctx context.Context, id string) (*domain.Photo, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, deletePhotoSQL, id); err != nil {
		return nil, wrap(err, "delete photo")
	}
	return p, nil
}
