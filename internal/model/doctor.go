package model

import "time"

type Doctor struct {
	ID              string    `db:"id" json:"id" bson:"_id"`
	Name            string    `db:"name" json:"name" bson:"name"`
	Specialization  string    `db:"specialization" json:"specialization" bson:"specialization"`
	ExperienceYears int       `db:"experience_years" json:"experience_years" bson:"experience_years"`
	Education       string    `db:"education" json:"education" bson:"education"`
	ImagePublicID   string    `db:"image_public_id" json:"image_public_id,omitempty" bson:"image_public_id,omitempty"`
	ImageURL        string    `db:"-" json:"image_url,omitempty" bson:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

type CreateDoctorRequest struct {
	Name            string `json:"name" validate:"notblank,max=120"`
	Specialization  string `json:"specialization" validate:"notblank,max=80"`
	ExperienceYears int    `json:"experience_years" validate:"min=0,max=80"`
	Education       string `json:"education" validate:"max=200"`
	ImagePublicID   string `json:"image_public_id" validate:"max=255"`
}

type UpdateDoctorRequest struct {
	Name            *string `json:"name" validate:"omitempty,notblank,max=120"`
	Specialization  *string `json:"specialization" validate:"omitempty,notblank,max=80"`
	ExperienceYears *int    `json:"experience_years" validate:"omitempty,min=0,max=80"`
	Education       *string `json:"education" validate:"omitempty,max=200"`
	ImagePublicID   *string `json:"image_public_id" validate:"omitempty,max=255"`
}

type DoctorFilter struct {
	Specialization string `form:"specialization"`
}
