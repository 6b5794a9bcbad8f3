// Package notification pushes "bed is ready" messages to dashboard browsers
// subscribed to a department.
package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bedflow-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans bed-ready notifications out to a fixed set of workers.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
	log     *logrus.Entry
}

// NewWorkerPool creates a worker pool of the given size.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, log *logrus.Entry) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.WithField("worker", id).Debug("notification worker started")
	for {
		select {
		case bedID := <-wp.jobs:
			wp.sendNotificationsForBed(ctx, bedID)
		case <-ctx.Done():
			wp.log.WithField("worker", id).Debug("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a ready bed for notification.
func (wp *WorkerPool) Dispatch(bedID int64) {
	wp.jobs <- bedID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// sendNotificationsForBed notifies every subscription watching the bed's
// department.
func (wp *WorkerPool) sendNotificationsForBed(ctx context.Context, bedID int64) {
	var bed model.Bed
	if err := wp.db.WithContext(ctx).Preload("Room").First(&bed, bedID).Error; err != nil {
		wp.log.WithError(err).WithField("bed_id", bedID).Error("failed to load bed for notification")
		return
	}

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("department_id = ?", bed.Room.DepartmentID).
		Find(&subscriptions).Error
	if err != nil {
		wp.log.WithError(err).WithField("bed_id", bedID).Error("failed to fetch subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	message := fmt.Sprintf("Bed %s (room %s) is ready for the next patient", bed.BedNumber, bed.Room.Number)
	wp.log.WithFields(logrus.Fields{
		"bed_id":        bedID,
		"subscriptions": len(subscriptions),
	}).Info("sending bed-ready notifications")

	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.WithError(err).WithField("endpoint", sub.Endpoint).Error("failed to send notification")
		return
	}
	defer resp.Body.Close()

	// A 410 means the browser dropped the subscription.
	if resp.StatusCode == http.StatusGone {
		wp.log.WithField("endpoint", sub.Endpoint).Info("subscription expired, deleting")
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.log.WithError(err).WithField("endpoint", sub.Endpoint).Error("failed to delete expired subscription")
		}
	}
}
