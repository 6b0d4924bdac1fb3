package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end`

// Redis реализует распределённую блокировку по ключу на основе SET NX.
// Снять блокировку может только её владелец.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	token  func() string
	logger *zap.Logger
}

func NewRedis(c redis.Cmdable, ttl time.Duration, l *zap.Logger) *Redis {
	return &Redis{
		client: c,
		prefix: "walletgate:lock:",
		ttl:    ttl,
		token:  uuid.NewString,
		logger: l,
	}
}

// Lock захватывает блокировку key на время ttl. Если блокировка уже захвачена,
// возвращает ошибку errors.ErrReferenceLocked.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	var (
		k     = r.prefix + key
		token = r.token()
	)
	ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, inerr.ErrReferenceLocked
	}

	return func() {
		err := r.client.Eval(context.WithoutCancel(ctx), releaseScript, []string{k}, token).Err()
		if err != nil {
			r.logger.Warn("ошибка снятия блокировки", zap.String("key", k), zap.Error(err))
		}
	}, nil
}

// Nop используется, когда Redis не настроен: обработку платежа защищает
// блокировка строки транзакции в БД.
type Nop struct{}

func (Nop) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
