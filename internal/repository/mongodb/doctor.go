package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
)

type doctorRepository struct {
	doctors *mongo.Collection
	slots   *mongo.Collection
}

func NewDoctorRepository(db *mongo.Database) repository.DoctorRepository {
	return &doctorRepository{
		doctors: db.Collection(doctorsCollection),
		slots:   db.Collection(slotsCollection),
	}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	if _, err := r.doctors.InsertOne(ctx, doctor); err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id string) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.doctors.FindOne(ctx, bson.M{"_id": id}).Decode(&doctor); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", notFound(err))
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	doctor.UpdatedAt = time.Now().UTC()
	res, err := r.doctors.UpdateOne(ctx, bson.M{"_id": doctor.ID}, bson.M{"$set": bson.M{
		"name":             doctor.Name,
		"specialization":   doctor.Specialization,
		"experience_years": doctor.ExperienceYears,
		"education":        doctor.Education,
		"image_public_id":  doctor.ImagePublicID,
		"updated_at":       doctor.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to update doctor: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id string) error {
	booked, err := r.slots.CountDocuments(ctx, bson.M{"doctor_id": id, "is_booked": true})
	if err != nil {
		return fmt.Errorf("failed to count booked slots: %w", err)
	}
	if booked > 0 {
		return fmt.Errorf("doctor has %d booked slots: %w", booked, repository.ErrSlotConflict)
	}

	res, err := r.doctors.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("failed to delete doctor: %w", repository.ErrNotFound)
	}

	if _, err := r.slots.DeleteMany(ctx, bson.M{"doctor_id": id, "is_booked": false}); err != nil {
		return fmt.Errorf("failed to delete doctor slots: %w", err)
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	query := bson.M{}
	if filter.Specialization != "" {
		query["specialization"] = primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(filter.Specialization) + "$",
			Options: "i",
		}
	}

	cur, err := r.doctors.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	doctors := []*model.Doctor{}
	if err := cur.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}
	return doctors, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
