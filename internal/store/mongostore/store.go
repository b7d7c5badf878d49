// Package mongostore implements store.Store on MongoDB. Documents use string ids
// stored in _id, matching the relational adapter.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/thelibrary/moderation-backend/internal/models"
	"github.com/thelibrary/moderation-backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	colUsers    = "users"
	colBooks    = "books"
	colComments = "comments"
	colReports  = "reports"
	colAlerts   = "report_alerts"
	colStrikes  = "user_strikes"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	s := &Store{client: client, db: client.Database(database)}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the lookup indexes and the partial unique index that keeps
// at most one open alert per book.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(colReports).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "target_type", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("report indexes: %w", err)
	}

	_, err = s.db.Collection(colAlerts).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "book_id", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys: bson.D{{Key: "book_id", Value: 1}},
			Options: options.Index().
				SetName("open_alert_per_book").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.AlertStatusOpen}),
		},
	})
	if err != nil {
		return fmt.Errorf("alert indexes: %w", err)
	}

	_, err = s.db.Collection(colStrikes).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("strike indexes: %w", err)
	}
	return nil
}

// --- users ---

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.findByID(ctx, colUsers, id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) InsertUser(ctx context.Context, user *models.User) error {
	stamp(&user.CreatedAt, &user.UpdatedAt)
	return s.insert(ctx, colUsers, user)
}

func (s *Store) UpdateUserModeration(ctx context.Context, id string, m store.UserModeration) error {
	return s.setByID(ctx, colUsers, id, moderationFields(m))
}

func (s *Store) UpdateUsername(ctx context.Context, id, username string, m store.UserModeration) error {
	fields := moderationFields(m)
	fields["username"] = username
	return s.setByID(ctx, colUsers, id, fields)
}

func moderationFields(m store.UserModeration) bson.M {
	return bson.M{
		"status":               m.Status,
		"name_change_deadline": m.NameChangeDeadline,
		"reported_for_name":    m.ReportedForName,
	}
}

// --- books ---

func (s *Store) GetBook(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := s.findByID(ctx, colBooks, id, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (s *Store) InsertBook(ctx context.Context, book *models.Book) error {
	stamp(&book.CreatedAt, &book.UpdatedAt)
	return s.insert(ctx, colBooks, book)
}

func (s *Store) UpdateBookStatus(ctx context.Context, id, status string) error {
	return s.setByID(ctx, colBooks, id, bson.M{"status": status})
}

// --- comments ---

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.findByID(ctx, colComments, id, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Store) InsertComment(ctx context.Context, comment *models.Comment) error {
	stamp(&comment.CreatedAt, &comment.UpdatedAt)
	return s.insert(ctx, colComments, comment)
}

// --- reports ---

func (s *Store) InsertReport(ctx context.Context, report *models.Report) error {
	stamp(&report.CreatedAt, &report.UpdatedAt)
	return s.insert(ctx, colReports, report)
}

func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := s.findByID(ctx, colReports, id, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Store) FindReports(ctx context.Context, filter store.ReportFilter) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	reports := make([]models.Report, 0)
	if err := s.find(ctx, colReports, reportQuery(filter), opts, &reports); err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	return reports, nil
}

func (s *Store) CountReports(ctx context.Context, filter store.ReportFilter) (int64, error) {
	total, err := s.db.Collection(colReports).CountDocuments(ctx, reportQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return total, nil
}

func (s *Store) CountReportsByTarget(ctx context.Context, filter store.ReportFilter) ([]store.TargetCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: reportQuery(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$target_id"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.db.Collection(colReports).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count reports by target: %w", err)
	}
	var rows []struct {
		TargetID string `bson:"_id"`
		Total    int64  `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("count reports by target: %w", err)
	}

	result := make([]store.TargetCount, 0, len(rows))
	for _, r := range rows {
		result = append(result, store.TargetCount{TargetID: r.TargetID, Total: r.Total})
	}
	return result, nil
}

func (s *Store) UpdateReportStatus(ctx context.Context, id, status string, adminID *string) error {
	fields := bson.M{"status": status, "updated_at": time.Now().UTC()}
	if adminID != nil {
		fields["admin_id"] = *adminID
	}
	return s.setByID(ctx, colReports, id, fields)
}

func reportQuery(f store.ReportFilter) bson.M {
	q := bson.M{}
	if f.TargetID != "" {
		q["target_id"] = f.TargetID
	}
	if f.TargetType != "" {
		q["target_type"] = f.TargetType
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Reason != "" {
		q["reason"] = primitive.Regex{
			Pattern: `^\s*` + regexp.QuoteMeta(strings.TrimSpace(f.Reason)) + `\s*$`,
			Options: "i",
		}
	}
	return q
}

// --- alerts ---

func (s *Store) InsertAlert(ctx context.Context, alert *models.ReportAlert) error {
	stamp(&alert.CreatedAt, &alert.UpdatedAt)
	return s.insert(ctx, colAlerts, alert)
}

func (s *Store) GetAlert(ctx context.Context, id string) (*models.ReportAlert, error) {
	var alert models.ReportAlert
	if err := s.findByID(ctx, colAlerts, id, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (s *Store) FindAlerts(ctx context.Context, filter store.AlertFilter) ([]models.ReportAlert, error) {
	q := bson.M{}
	if filter.BookID != "" {
		q["book_id"] = filter.BookID
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}

	alerts := make([]models.ReportAlert, 0)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := s.find(ctx, colAlerts, q, opts, &alerts); err != nil {
		return nil, fmt.Errorf("find alerts: %w", err)
	}
	return alerts, nil
}

func (s *Store) UpdateAlertStatus(ctx context.Context, id, status string) error {
	return s.setByID(ctx, colAlerts, id, bson.M{"status": status})
}

// --- strikes ---

func (s *Store) InsertStrike(ctx context.Context, strike *models.UserStrike) error {
	stamp(&strike.CreatedAt, &strike.UpdatedAt)
	return s.insert(ctx, colStrikes, strike)
}

func (s *Store) FindStrikes(ctx context.Context, filter store.StrikeFilter) ([]models.UserStrike, error) {
	q := bson.M{}
	if filter.UserID != "" {
		q["user_id"] = filter.UserID
	}

	strikes := make([]models.UserStrike, 0)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := s.find(ctx, colStrikes, q, opts, &strikes); err != nil {
		return nil, fmt.Errorf("find strikes: %w", err)
	}
	return strikes, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

// --- helpers ---

func (s *Store) findByID(ctx context.Context, collection, id string, out interface{}) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) find(ctx context.Context, collection string, q bson.M, opts *options.FindOptions, out interface{}) error {
	cursor, err := s.db.Collection(collection).Find(ctx, q, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func (s *Store) insert(ctx context.Context, collection string, doc interface{}) error {
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
		return err
	}
	return nil
}

func (s *Store) setByID(ctx context.Context, collection, id string, fields bson.M) error {
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now().UTC()
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
}
