// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/eduvault/internal/domain/models"
)

// InvitationExpiryJob creates a job that marks pending invitations whose
// expiry has passed as expired. Marking instead of deleting keeps the
// invitation history visible to repository admins.
func InvitationExpiryJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "invitation-expiry",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("invitations")
			now := time.Now().UTC()
			result, err := coll.UpdateMany(ctx,
				bson.M{
					"status":     models.InvitationPending,
					"expires_at": bson.M{"$lt": now},
				},
				bson.M{
					"$set": bson.M{
						"status":     models.InvitationExpired,
						"updated_at": now,
					},
				},
			)
			if err != nil {
				return err
			}
			if result.ModifiedCount > 0 {
				logger.Info("marked expired invitations",
					zap.Int64("count", result.ModifiedCount))
			}
			return nil
		},
	}
}

// InvitationCleanupJob creates a job that removes invitations long past
// their expiry (accepted, declined, or expired more than 30 days ago).
func InvitationCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "invitation-cleanup",
		Interval: 6 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("invitations")
			cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
			result, err := coll.DeleteMany(ctx, bson.M{
				"status":     bson.M{"$ne": models.InvitationPending},
				"expires_at": bson.M{"$lt": cutoff},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("cleaned up old invitations",
					zap.Int64("deleted", result.DeletedCount))
			}
			return nil
		},
	}
}

// PasswordResetCleanupJob creates a job that removes expired password reset
// tokens. The TTL index handles the common case; this sweep also catches
// used tokens that the TTL has not reached yet.
func PasswordResetCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "password-reset-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("password_resets")
			result, err := coll.DeleteMany(ctx, bson.M{
				"$or": []bson.M{
					{"expires_at": bson.M{"$lt": time.Now().UTC()}},
					{"used_at": bson.M{"$ne": nil}},
				},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("cleaned up password reset tokens",
					zap.Int64("deleted", result.DeletedCount))
			}
			return nil
		},
	}
}

// NotificationPruneJob creates a job that removes read notifications older
// than the retention window so inboxes do not grow without bound.
func NotificationPruneJob(db *mongo.Database, logger *zap.Logger, retention time.Duration) Job {
	return Job{
		Name:     "notification-prune",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("notifications")
			cutoff := time.Now().UTC().Add(-retention)
			result, err := coll.DeleteMany(ctx, bson.M{
				"read":       true,
				"created_at": bson.M{"$lt": cutoff},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("pruned read notifications",
					zap.Int64("deleted", result.DeletedCount),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
