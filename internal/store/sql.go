package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"patient-companion-server/internal/config"
	"patient-companion-server/internal/models"
)

// SQL stores records in MySQL through gorm. Each vital kind gets its own
// table, mirroring the document collections.
type SQL struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSQL opens the MySQL connection.
func NewSQL(cfg config.DatabaseConfig, log *zap.Logger) (*SQL, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}

	log.Info("connected to mysql", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
	return &SQL{db: db, log: log}, nil
}

func (s *SQL) FindPatient(ctx context.Context, phoneNumber string) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.WithContext(ctx).First(&p, "phone_number = ?", phoneNumber).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &p, nil
}

func (s *SQL) MostRecentPatient(ctx context.Context) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.WithContext(ctx).Order("created_at desc").Take(&p).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &p, nil
}

func (s *SQL) CreatePatient(ctx context.Context, p *models.Patient) error {
	return mapGormErr(s.db.WithContext(ctx).Create(p).Error)
}

// UpdatePatientName returns ErrNotFound only when no row matches. MySQL
// counts changed rows, so zero affected rows is confirmed with a lookup.
func (s *SQL) UpdatePatientName(ctx context.Context, phoneNumber, name string) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Patient{}).
		Where("phone_number = ?", phoneNumber).
		Updates(map[string]any{"name": name, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return mapGormErr(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Patient{}).Where("phone_number = ?", phoneNumber).Count(&count).Error; err != nil {
		return mapGormErr(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) InsertSymptom(ctx context.Context, sym *models.Symptom) error {
	return s.db.WithContext(ctx).Create(sym).Error
}

func (s *SQL) ListSymptoms(ctx context.Context, owner string) ([]models.Symptom, error) {
	out := make([]models.Symptom, 0)
	err := s.owned(ctx, models.CollectionSymptoms, owner).Find(&out).Error
	return out, err
}

func (s *SQL) LatestSymptom(ctx context.Context) (*models.Symptom, error) {
	var sym models.Symptom
	if err := s.owned(ctx, models.CollectionSymptoms, "").Take(&sym).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &sym, nil
}

func (s *SQL) InsertVital(ctx context.Context, v *models.VitalReading) error {
	return s.db.WithContext(ctx).Table(v.Kind.Collection()).Create(v).Error
}

func (s *SQL) ListVitals(ctx context.Context, kind models.VitalKind, owner string) ([]models.VitalReading, error) {
	out := make([]models.VitalReading, 0)
	if err := s.owned(ctx, kind.Collection(), owner).Find(&out).Error; err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Kind = kind
	}
	return out, nil
}

func (s *SQL) LatestVital(ctx context.Context, kind models.VitalKind) (*models.VitalReading, error) {
	var v models.VitalReading
	if err := s.owned(ctx, kind.Collection(), "").Take(&v).Error; err != nil {
		return nil, mapGormErr(err)
	}
	v.Kind = kind
	return &v, nil
}

func (s *SQL) InsertAppointment(ctx context.Context, a *models.Appointment) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *SQL) InsertImage(ctx context.Context, img *models.Image) error {
	return s.db.WithContext(ctx).Create(img).Error
}

func (s *SQL) ListImages(ctx context.Context, owner string) ([]models.Image, error) {
	out := make([]models.Image, 0)
	err := s.owned(ctx, models.CollectionImages, owner).Find(&out).Error
	return out, err
}

func (s *SQL) InsertText(ctx context.Context, t *models.Text) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *SQL) ListTexts(ctx context.Context, owner string) ([]models.Text, error) {
	out := make([]models.Text, 0)
	err := s.owned(ctx, models.CollectionTexts, owner).Find(&out).Error
	return out, err
}

// EnsureSchema auto-migrates every table.
func (s *SQL) EnsureSchema(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&models.Patient{},
		&models.Symptom{},
		&models.Appointment{},
		&models.Image{},
		&models.Text{},
	); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}
	for _, kind := range []models.VitalKind{models.VitalTemperature, models.VitalPain} {
		if err := db.Table(kind.Collection()).AutoMigrate(&models.VitalReading{}); err != nil {
			return fmt.Errorf("auto-migrating %s: %w", kind, err)
		}
	}
	s.log.Info("mysql schema ensured")
	return nil
}

func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQL) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQL) owned(ctx context.Context, table, owner string) *gorm.DB {
	q := s.db.WithContext(ctx).Table(table).Order("created_at desc").Order("id desc")
	if owner != "" {
		q = q.Where("phone_number = ?", owner)
	}
	return q
}

func mapGormErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
