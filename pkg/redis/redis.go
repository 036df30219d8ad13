package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const TallyTTL = 24 * time.Hour

const (
	fieldFrames  = "frames"
	fieldFocused = "focused"
)

type Tally struct {
	Frames  int64
	Focused int64
}

type IRedis interface {
	IncrFrameTally(ctx context.Context, sessionID int64, focused bool) (Tally, error)
	GetFrameTally(ctx context.Context, sessionID int64) (Tally, error)
	DeleteFrameTally(ctx context.Context, sessionID int64) error
	Close() error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return NewFromClient(client)
}

func NewFromClient(client *redis.Client) IRedis {
	return &redisClient{client: client}
}

func tallyKey(sessionID int64) string {
	return fmt.Sprintf("focus:session:%d:tally", sessionID)
}

// IncrFrameTally counts one classified frame and refreshes the key expiry.
func (r *redisClient) IncrFrameTally(ctx context.Context, sessionID int64, focused bool) (Tally, error) {
	key := tallyKey(sessionID)

	var focusedDelta int64
	if focused {
		focusedDelta = 1
	}

	pipe := r.client.TxPipeline()
	frames := pipe.HIncrBy(ctx, key, fieldFrames, 1)
	focusedCount := pipe.HIncrBy(ctx, key, fieldFocused, focusedDelta)
	pipe.Expire(ctx, key, TallyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		logrus.Error(fmt.Sprintf("Error updating tally for key %s: %v", key, err))
		return Tally{}, err
	}

	return Tally{Frames: frames.Val(), Focused: focusedCount.Val()}, nil
}

func (r *redisClient) GetFrameTally(ctx context.Context, sessionID int64) (Tally, error) {
	key := tallyKey(sessionID)

	values, err := r.client.HMGet(ctx, key, fieldFrames, fieldFocused).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error getting tally for key %s: %v", key, err))
		return Tally{}, err
	}

	if len(values) != 2 || values[0] == nil {
		logrus.Debug(fmt.Sprintf("Tally not found for key %s", key))
		return Tally{}, redis.Nil
	}

	var tally Tally
	if tally.Frames, err = parseCount(values[0]); err != nil {
		return Tally{}, err
	}
	if tally.Focused, err = parseCount(values[1]); err != nil {
		return Tally{}, err
	}

	return tally, nil
}

func (r *redisClient) DeleteFrameTally(ctx context.Context, sessionID int64) error {
	key := tallyKey(sessionID)

	result, err := r.client.Del(ctx, key).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error deleting tally for key %s: %v", key, err))
		return err
	}

	if result == 0 {
		logrus.Debug(fmt.Sprintf("Tally key %s not found for deletion", key))
	}

	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}

func parseCount(v interface{}) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, errors.New("unexpected tally value type")
	}
	return strconv.ParseInt(s, 10, 64)
}

func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
