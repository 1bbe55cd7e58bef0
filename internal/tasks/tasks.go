package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"communitycart/market/internal/config"
	"communitycart/market/internal/notify"
	"communitycart/market/internal/services"
	"communitycart/market/internal/storage"
)

// Task types.
const (
	TypeNotifyDeliver   = "notify:deliver"
	TypeImageProcess    = "image:process"
	TypeClosingSoonScan = "groupbuy:closing_soon:scan"
)

// Queues.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueImages   = "images"
	QueueLow      = "low"
)

// IAsynqClient is the subset of *asynq.Client used to enqueue work.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// NotifyTaskPayload asks the worker to render and send one notification.
type NotifyTaskPayload struct {
	To     string                 `json:"to"`
	Kind   notify.Kind            `json:"kind"`
	Locale string                 `json:"locale,omitempty"`
	Data   map[string]interface{} `json:"data"`
}

// ImageTaskPayload points at an uploaded listing image.
type ImageTaskPayload struct {
	S3Key     string `json:"s3_key"`
	ListingID string `json:"listing_id"`
}

func NewNotifyTask(payload NotifyTaskPayload, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notify payload: %w", err)
	}
	return asynq.NewTask(TypeNotifyDeliver, data, append([]asynq.Option{asynq.Queue(QueueCritical)}, opts...)...), nil
}

func NewImageProcessTask(payload ImageTaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, data, asynq.Queue(QueueImages), asynq.MaxRetry(5)), nil
}

func NewClosingSoonScanTask() *asynq.Task {
	return asynq.NewTask(TypeClosingSoonScan, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies task handlers need.
type TaskProcessor struct {
	cfg        *config.Config
	sender     notify.Sender
	templates  services.INotificationTemplateService
	storage    storage.IS3Storage
	groupBuys  services.IGroupBuyService
	orders     services.IOrderService
	taskClient IAsynqClient
	clock      func() time.Time
}

func NewTaskProcessor(
	cfg *config.Config,
	sender notify.Sender,
	templates services.INotificationTemplateService,
	storageService storage.IS3Storage,
	groupBuys services.IGroupBuyService,
	orders services.IOrderService,
	taskClient IAsynqClient,
	clock func() time.Time,
) *TaskProcessor {
	if clock == nil {
		clock = time.Now
	}
	return &TaskProcessor{
		cfg:        cfg,
		sender:     sender,
		templates:  templates,
		storage:    storageService,
		groupBuys:  groupBuys,
		orders:     orders,
		taskClient: taskClient,
		clock:      clock,
	}
}

// NewServer returns an asynq server that is not yet running.
func NewServer(rdb *redis.Client) *asynq.Server {
	return asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Queues: map[string]int{
				QueueCritical: 6,
				QueueImages:   5,
				QueueDefault:  3,
				QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("type", task.Type()).Bytes("payload", task.Payload()).Msg("task failed")
			}),
		},
	)
}

// NewServeMux registers the handlers for the given worker roles.
func NewServeMux(processor *TaskProcessor, isImageWorker, isBgWorker bool) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	if isBgWorker {
		mux.HandleFunc(TypeNotifyDeliver, processor.HandleNotifyDeliveryTask)
		mux.HandleFunc(TypeClosingSoonScan, processor.HandleClosingSoonScanTask)
		log.Info().Msg("registered background task handlers")
	}
	if isImageWorker {
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		log.Info().Msg("registered image processing task handlers")
	}
	return mux
}

// NewScheduler schedules the periodic closing-soon scan.
func NewScheduler(rdb *redis.Client, interval time.Duration) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt(rdb), &asynq.SchedulerOpts{Location: time.UTC})
	cronspec := fmt.Sprintf("@every %s", interval)
	if _, err := scheduler.Register(cronspec, NewClosingSoonScanTask()); err != nil {
		return nil, fmt.Errorf("failed to register closing-soon scan: %w", err)
	}
	return scheduler, nil
}
