package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"communitycart/market/internal/db"
	"communitycart/market/internal/models"
	"communitycart/market/internal/notify"
)

// DefaultLocale is used when a caller does not ask for a specific one.
const DefaultLocale = "en-CA"

// Fallback templates used when the database has no override.
var defaultNotificationTemplates = map[notify.Kind]models.NotificationTemplate{
	notify.KindClosingSoon: {
		Kind:    string(notify.KindClosingSoon),
		Locale:  DefaultLocale,
		Subject: "{{.title}} closes in {{.days_left}} day(s)",
		Body:    "Your group buy \"{{.title}}\" has {{.current}} of {{.target}} units committed and closes in {{.days_left}} day(s).",
	},
	notify.KindJoinConfirmation: {
		Kind:    string(notify.KindJoinConfirmation),
		Locale:  DefaultLocale,
		Subject: "You joined {{.title}}",
		Body:    "You committed to {{.quantity}} unit(s) of \"{{.title}}\". The group buy is {{.progress}}% of the way to its target.",
	},
	notify.KindTest: {
		Kind:    string(notify.KindTest),
		Locale:  DefaultLocale,
		Subject: "Test notification",
		Body:    "This is a test notification from {{.app_name}}.",
	},
}

// INotificationTemplateService defines the interface for notification template operations.
type INotificationTemplateService interface {
	GetTemplate(ctx context.Context, kind notify.Kind, locale string) (*models.NotificationTemplate, error)
	SaveTemplate(ctx context.Context, tmpl *models.NotificationTemplate) error
	DeleteTemplate(ctx context.Context, kind notify.Kind, locale string) error
}

type notificationTemplateService struct {
	db *mongo.Database
}

func NewNotificationTemplateService(db *mongo.Database) INotificationTemplateService {
	return &notificationTemplateService{db: db}
}

// GetTemplate returns the stored template, falling back to the built-in one.
func (s *notificationTemplateService) GetTemplate(ctx context.Context, kind notify.Kind, locale string) (*models.NotificationTemplate, error) {
	if locale == "" {
		locale = DefaultLocale
	}

	var tmpl models.NotificationTemplate
	err := s.db.Collection(db.NotificationTemplatesCollection).
		FindOne(ctx, bson.M{"kind": string(kind), "locale": locale}).
		Decode(&tmpl)
	if err == nil {
		return &tmpl, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error retrieving template: %w", err)
	}
	if def, ok := defaultNotificationTemplates[kind]; ok {
		return &def, nil
	}
	return nil, fmt.Errorf("template not found: %s (locale: %s)", kind, locale)
}

// SaveTemplate upserts a template keyed by kind and locale.
func (s *notificationTemplateService) SaveTemplate(ctx context.Context, tmpl *models.NotificationTemplate) error {
	filter := bson.M{"kind": tmpl.Kind, "locale": tmpl.Locale}
	opts := options.Update().SetUpsert(true)
	if _, err := s.db.Collection(db.NotificationTemplatesCollection).UpdateOne(ctx, filter, bson.M{"$set": tmpl}, opts); err != nil {
		return fmt.Errorf("error saving template: %w", err)
	}
	return nil
}

func (s *notificationTemplateService) DeleteTemplate(ctx context.Context, kind notify.Kind, locale string) error {
	filter := bson.M{"kind": string(kind), "locale": locale}
	if _, err := s.db.Collection(db.NotificationTemplatesCollection).DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("error deleting template: %w", err)
	}
	return nil
}
