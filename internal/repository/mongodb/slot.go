package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
)

type slotRepository struct {
	db      *mongo.Database
	slots   *mongo.Collection
	doctors *mongo.Collection
}

func NewSlotRepository(db *mongo.Database) repository.SlotRepository {
	return &slotRepository{
		db:      db,
		slots:   db.Collection(slotsCollection),
		doctors: db.Collection(doctorsCollection),
	}
}

func (r *slotRepository) CreateBatch(ctx context.Context, slots []*model.Slot) error {
	if len(slots) == 0 {
		return nil
	}

	n, err := r.doctors.CountDocuments(ctx, bson.M{"_id": slots[0].DoctorID})
	if err != nil {
		return fmt.Errorf("failed to check doctor: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to create slots: doctor %s: %w", slots[0].DoctorID, repository.ErrNotFound)
	}

	first, err := nextSeq(ctx, r.db, slotsCollection, int64(len(slots)))
	if err != nil {
		return err
	}

	docs := make([]interface{}, len(slots))
	for i, s := range slots {
		s.Seq = first + int64(i)
		docs[i] = s
	}
	if _, err := r.slots.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create slots: %w", err)
	}
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id string) (*model.Slot, error) {
	var slot model.Slot
	if err := r.slots.FindOne(ctx, bson.M{"_id": id}).Decode(&slot); err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", notFound(err))
	}
	return &slot, nil
}

func (r *slotRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Slot, error) {
	return r.find(ctx, bson.M{"doctor_id": doctorID})
}

func (r *slotRepository) ListByDate(ctx context.Context, date string) ([]*model.Slot, error) {
	return r.find(ctx, bson.M{"date": date})
}

func (r *slotRepository) find(ctx context.Context, filter bson.M) ([]*model.Slot, error) {
	cur, err := r.slots.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	slots := []*model.Slot{}
	if err := cur.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) Delete(ctx context.Context, id string) error {
	res, err := r.slots.DeleteOne(ctx, bson.M{"_id": id, "is_booked": false})
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if res.DeletedCount > 0 {
		return nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("failed to delete slot: %w", repository.ErrSlotConflict)
}
