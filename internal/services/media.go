package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"patient-companion-server/internal/imagehost"
	"patient-companion-server/internal/messaging"
	"patient-companion-server/internal/metrics"
)

// MediaFetcher downloads a media item from the messaging provider.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (*messaging.Media, error)
}

// ImageUploader hosts an image given as a data URI.
type ImageUploader interface {
	Upload(ctx context.Context, dataURI, phoneNumber string) (*imagehost.Asset, error)
}

// MMSResult counts what happened to the media of one inbound message.
type MMSResult struct {
	Received int
	Uploaded int
	Images   []string
}

// MediaService re-hosts MMS attachments and records them as images.
type MediaService struct {
	fetcher  MediaFetcher
	uploader ImageUploader
	records  *RecordService
	metrics  *metrics.Collector
	log      *zap.Logger
	now      func() time.Time
}

// NewMediaService creates a new media service.
func NewMediaService(f MediaFetcher, u ImageUploader, records *RecordService, m *metrics.Collector, log *zap.Logger) *MediaService {
	return &MediaService{
		fetcher:  f,
		uploader: u,
		records:  records,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// ProcessInbound handles every attachment independently. A failed item is
// logged and skipped; the result says how many made it.
func (s *MediaService) ProcessInbound(ctx context.Context, msg *messaging.InboundMMS) MMSResult {
	ctx, span := tracer.Start(ctx, "MediaService.ProcessInbound")
	defer span.End()

	res := MMSResult{Received: len(msg.Media)}
	span.SetAttributes(attribute.Int("mms.media_count", res.Received))

	for i, item := range msg.Media {
		log := s.log.With(zap.String("from", msg.From), zap.Int("index", i))

		url, err := s.processItem(ctx, msg.From, item)
		if err != nil {
			log.Warn("media item skipped", zap.Error(err))
			continue
		}
		res.Uploaded++
		res.Images = append(res.Images, url)
		s.metrics.MediaItemsTotal.WithLabelValues("uploaded").Inc()
		log.Info("media item stored", zap.String("image_url", url))
	}
	span.SetAttributes(attribute.Int("mms.uploaded", res.Uploaded))
	return res
}

func (s *MediaService) processItem(ctx context.Context, from string, item messaging.MediaItem) (string, error) {
	if item.URL == "" {
		s.metrics.MediaItemsTotal.WithLabelValues("missing_url").Inc()
		return "", invalid("media_url: required")
	}

	media, err := s.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		s.metrics.MediaItemsTotal.WithLabelValues("download_failed").Inc()
		s.metrics.UpstreamErrorsTotal.WithLabelValues("messaging").Inc()
		return "", &UpstreamError{Service: "messaging", Err: err}
	}

	contentType := item.ContentType
	if contentType == "" {
		contentType = media.ContentType
	}

	asset, err := s.uploader.Upload(ctx, imagehost.DataURI(contentType, media.Data), from)
	if err != nil {
		s.metrics.MediaItemsTotal.WithLabelValues("upload_failed").Inc()
		s.metrics.UpstreamErrorsTotal.WithLabelValues("imagehost").Inc()
		return "", &UpstreamError{Service: "imagehost", Err: err}
	}

	_, err = s.records.AppendImage(ctx, ImageInput{
		PhoneNumber:  from,
		ImageURL:     asset.URL,
		CloudinaryID: asset.PublicID,
		CreatedAt:    s.now(),
	})
	if err != nil {
		s.metrics.MediaItemsTotal.WithLabelValues("record_failed").Inc()
		return "", err
	}
	return asset.URL, nil
}
