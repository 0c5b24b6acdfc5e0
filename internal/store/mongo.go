package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"patient-companion-server/internal/models"
)

// newestFirst orders by creation time, then by the time-ordered _id.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// Mongo is the document store driver.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// NewMongo connects and pings the deployment before returning.
func NewMongo(ctx context.Context, uri, database string, log *zap.Logger) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	log.Info("connected to mongodb", zap.String("database", database))
	return &Mongo{client: client, db: client.Database(database), log: log}, nil
}

func (m *Mongo) FindPatient(ctx context.Context, phoneNumber string) (*models.Patient, error) {
	var p models.Patient
	err := m.db.Collection(models.CollectionCallers).FindOne(ctx, bson.M{"_id": phoneNumber}).Decode(&p)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &p, nil
}

func (m *Mongo) MostRecentPatient(ctx context.Context) (*models.Patient, error) {
	var p models.Patient
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := m.db.Collection(models.CollectionCallers).FindOne(ctx, bson.M{}, opts).Decode(&p); err != nil {
		return nil, mapMongoErr(err)
	}
	return &p, nil
}

func (m *Mongo) CreatePatient(ctx context.Context, p *models.Patient) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return insertOne(ctx, m.db.Collection(models.CollectionCallers), p)
}

func (m *Mongo) UpdatePatientName(ctx context.Context, phoneNumber, name string) error {
	res, err := m.db.Collection(models.CollectionCallers).UpdateOne(ctx,
		bson.M{"_id": phoneNumber},
		bson.M{"$set": bson.M{"name": name, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	return updateResultErr(res)
}

func (m *Mongo) InsertSymptom(ctx context.Context, s *models.Symptom) error {
	s.Prepare(time.Now())
	return insertOne(ctx, m.db.Collection(models.CollectionSymptoms), s)
}

func (m *Mongo) ListSymptoms(ctx context.Context, owner string) ([]models.Symptom, error) {
	return findAll[models.Symptom](ctx, m.db.Collection(models.CollectionSymptoms), owner)
}

func (m *Mongo) LatestSymptom(ctx context.Context) (*models.Symptom, error) {
	return findLatest[models.Symptom](ctx, m.db.Collection(models.CollectionSymptoms))
}

func (m *Mongo) InsertVital(ctx context.Context, v *models.VitalReading) error {
	v.Prepare(time.Now())
	return insertOne(ctx, m.db.Collection(v.Kind.Collection()), v)
}

func (m *Mongo) ListVitals(ctx context.Context, kind models.VitalKind, owner string) ([]models.VitalReading, error) {
	out, err := findAll[models.VitalReading](ctx, m.db.Collection(kind.Collection()), owner)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Kind = kind
	}
	return out, nil
}

func (m *Mongo) LatestVital(ctx context.Context, kind models.VitalKind) (*models.VitalReading, error) {
	v, err := findLatest[models.VitalReading](ctx, m.db.Collection(kind.Collection()))
	if err != nil {
		return nil, err
	}
	v.Kind = kind
	return v, nil
}

func (m *Mongo) InsertAppointment(ctx context.Context, a *models.Appointment) error {
	a.Prepare(time.Now())
	return insertOne(ctx, m.db.Collection(models.CollectionAppointments), a)
}

func (m *Mongo) InsertImage(ctx context.Context, img *models.Image) error {
	img.Prepare(time.Now())
	return insertOne(ctx, m.db.Collection(models.CollectionImages), img)
}

func (m *Mongo) ListImages(ctx context.Context, owner string) ([]models.Image, error) {
	return findAll[models.Image](ctx, m.db.Collection(models.CollectionImages), owner)
}

func (m *Mongo) InsertText(ctx context.Context, t *models.Text) error {
	t.Prepare(time.Now())
	return insertOne(ctx, m.db.Collection(models.CollectionTexts), t)
}

func (m *Mongo) ListTexts(ctx context.Context, owner string) ([]models.Text, error) {
	return findAll[models.Text](ctx, m.db.Collection(models.CollectionTexts), owner)
}

// EnsureSchema creates the owner/time indexes used by every list query.
func (m *Mongo) EnsureSchema(ctx context.Context) error {
	ownerTime := mongo.IndexModel{
		Keys: bson.D{{Key: "phone_number", Value: 1}, {Key: "created_at", Value: -1}},
	}
	for _, name := range recordCollections() {
		if _, err := m.db.Collection(name).Indexes().CreateOne(ctx, ownerTime); err != nil {
			return fmt.Errorf("creating index on %s: %w", name, err)
		}
		m.log.Info("index ensured", zap.String("collection", name))
	}

	callersByTime := mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}
	if _, err := m.db.Collection(models.CollectionCallers).Indexes().CreateOne(ctx, callersByTime); err != nil {
		return fmt.Errorf("creating index on %s: %w", models.CollectionCallers, err)
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func recordCollections() []string {
	return []string{
		models.CollectionSymptoms,
		models.VitalTemperature.Collection(),
		models.VitalPain.Collection(),
		models.CollectionAppointments,
		models.CollectionImages,
		models.CollectionTexts,
	}
}

func ownerFilter(owner string) bson.M {
	if owner == "" {
		return bson.M{}
	}
	return bson.M{"phone_number": owner}
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc any) error {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if !res.Acknowledged {
		return ErrNotAcknowledged
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, owner string) ([]T, error) {
	cur, err := coll.Find(ctx, ownerFilter(owner), options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findLatest[T any](ctx context.Context, coll *mongo.Collection) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, bson.M{}, options.FindOne().SetSort(newestFirst)).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return &doc, nil
}

// updateResultErr keys ErrNotFound off the matched count; an update that
// leaves the document unchanged still matched it.
func updateResultErr(res *mongo.UpdateResult) error {
	if !res.Acknowledged {
		return ErrNotAcknowledged
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mapMongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
