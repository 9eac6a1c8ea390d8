package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
)

// appointmentRepository pairs single-document conditional writes with a
// compensating write when the second half of Book or Cancel fails.
type appointmentRepository struct {
	slots        *mongo.Collection
	appointments *mongo.Collection
}

func NewAppointmentRepository(db *mongo.Database) repository.AppointmentRepository {
	return &appointmentRepository{
		slots:        db.Collection(slotsCollection),
		appointments: db.Collection(appointmentsCollection),
	}
}

func (r *appointmentRepository) Book(ctx context.Context, appt *model.Appointment) error {
	var slot model.Slot
	err := r.slots.FindOneAndUpdate(ctx,
		bson.M{"_id": appt.SlotID, "doctor_id": appt.DoctorID, "is_booked": false},
		bson.M{"$set": bson.M{"is_booked": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r.bookMiss(ctx, appt)
	}
	if err != nil {
		return fmt.Errorf("failed to reserve slot: %w", err)
	}

	appt.Date = slot.Date
	appt.Time = slot.Time

	if _, err := r.appointments.InsertOne(ctx, appt); err != nil {
		r.releaseSlot(appt.SlotID)
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) bookMiss(ctx context.Context, appt *model.Appointment) error {
	var slot model.Slot
	if err := r.slots.FindOne(ctx, bson.M{"_id": appt.SlotID}).Decode(&slot); err != nil {
		return fmt.Errorf("failed to reserve slot: %w", notFound(err))
	}
	if slot.DoctorID != appt.DoctorID {
		return fmt.Errorf("failed to reserve slot: %w", repository.ErrSlotMismatch)
	}
	return fmt.Errorf("failed to reserve slot: %w", repository.ErrSlotConflict)
}

// releaseSlot undoes a reservation whose appointment insert failed. It runs on
// a fresh context so a cancelled request still compensates. A timed out insert
// may still have been applied, so the slot stays booked while any live
// appointment references it.
func (r *appointmentRepository) releaseSlot(slotID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	live, err := r.appointments.CountDocuments(ctx, bson.M{
		"slot_id": slotID,
		"status":  bson.M{"$ne": model.AppointmentStatusCancelled},
	})
	if err != nil {
		log.Error().Err(err).Str("slot_id", slotID).Msg("failed to check slot before release, leaving it booked")
		return
	}
	if live > 0 {
		log.Warn().Str("slot_id", slotID).Msg("appointment insert reported an error but was applied, keeping slot booked")
		return
	}

	if _, err := r.slots.UpdateOne(ctx,
		bson.M{"_id": slotID, "is_booked": true},
		bson.M{"$set": bson.M{"is_booked": false}},
	); err != nil {
		log.Error().Err(err).Str("slot_id", slotID).Msg("failed to release slot after failed booking")
	}
}

func (r *appointmentRepository) Cancel(ctx context.Context, appointmentID, slotID string) (*model.Appointment, error) {
	now := time.Now().UTC()

	var before model.Appointment
	err := r.appointments.FindOneAndUpdate(ctx,
		bson.M{
			"_id":     appointmentID,
			"slot_id": slotID,
			"status":  bson.M{"$in": []model.AppointmentStatus{model.AppointmentStatusPending, model.AppointmentStatusConfirmed}},
		},
		bson.M{"$set": bson.M{"status": model.AppointmentStatusCancelled, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.cancelMiss(ctx, appointmentID, slotID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	res, err := r.slots.UpdateOne(ctx, bson.M{"_id": slotID}, bson.M{"$set": bson.M{"is_booked": false}})
	if err == nil && res.MatchedCount == 0 {
		err = repository.ErrNotFound
	}
	if err != nil {
		r.restoreStatus(appointmentID, before.Status, before.UpdatedAt)
		return nil, fmt.Errorf("failed to release slot: %w", err)
	}

	after := before
	after.Status = model.AppointmentStatusCancelled
	after.UpdatedAt = now
	return &after, nil
}

func (r *appointmentRepository) cancelMiss(ctx context.Context, appointmentID, slotID string) error {
	appt, err := r.Get(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appt.SlotID != slotID {
		return fmt.Errorf("failed to cancel appointment: %w", repository.ErrSlotMismatch)
	}
	return fmt.Errorf("failed to cancel %s appointment: %w", appt.Status, repository.ErrInvalidTransition)
}

func (r *appointmentRepository) restoreStatus(id string, status model.AppointmentStatus, updatedAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := r.appointments.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.AppointmentStatusCancelled},
		bson.M{"$set": bson.M{"status": status, "updated_at": updatedAt}},
	); err != nil {
		log.Error().Err(err).Str("appointment_id", id).Msg("failed to restore appointment after failed cancellation")
	}
}

func (r *appointmentRepository) Get(ctx context.Context, id string) (*model.Appointment, error) {
	var appt model.Appointment
	if err := r.appointments.FindOne(ctx, bson.M{"_id": id}).Decode(&appt); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", notFound(err))
	}
	return &appt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	query := bson.M{}
	if filter.PatientID != "" {
		query["patient_id"] = filter.PatientID
	}
	if filter.DoctorID != "" {
		query["doctor_id"] = filter.DoctorID
	}
	if filter.Date != "" {
		query["date"] = filter.Date
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "time", Value: -1},
		{Key: "created_at", Value: -1},
	})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cur, err := r.appointments.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	appts := []*model.Appointment{}
	if err := cur.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id string, from, to model.AppointmentStatus) (bool, error) {
	res, err := r.appointments.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition appointment: %w", err)
	}
	return res.ModifiedCount > 0, nil
}
