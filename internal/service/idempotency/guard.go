// Package idempotency обслуживает ключи Idempotency-Key: повтор ответов
// и периодическую очистку просроченных записей.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

const (
	defaultTTL      = 24 * time.Hour
	completeTimeout = 5 * time.Second
)

// Response — ранее сохранённый ответ, который нужно вернуть повторно.
type Response struct {
	Status int
	Body   []byte
}

// Guard связывает ключ идемпотентности с хэшем запроса и его результатом.
type Guard struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	logger *log.Entry
	now    func() time.Time
}

// NewGuard создаёт Guard. ttl <= 0 заменяется значением по умолчанию.
func NewGuard(repo domain.IdempotencyRepository, ttl time.Duration, logger *log.Entry) *Guard {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = log.WithField("component", "idempotency")
	}
	return &Guard{
		repo:   repo,
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RequestHash считает хэш запроса в пределах scope (например, "POST /api/orders").
func RequestHash(scope string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(scope))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Begin резервирует ключ. Если запрос с этим ключом уже завершён, возвращает
// сохранённый ответ. Ошибки: ErrIdempotencyHashMismatch при другом теле запроса,
// ErrIdempotencyInProgress пока первый запрос ещё выполняется.
func (g *Guard) Begin(ctx context.Context, key, scope string, body []byte) (*Response, error) {
	key, err := domain.NormalizeIdempotencyKey(key)
	if err != nil {
		return nil, err
	}

	record, err := g.repo.CreateProcessing(ctx, key, RequestHash(scope, body), g.now().Add(g.ttl))
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return nil, err
	case !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		return nil, fmt.Errorf("create idempotency record: %w", err)
	case record.Status == domain.IdempotencyStatusProcessing:
		return nil, domain.ErrIdempotencyInProgress
	case !record.Completed():
		return nil, fmt.Errorf("unknown idempotency record status %q", record.Status)
	}

	status := record.HTTPStatus
	if status == 0 {
		status = http.StatusOK
	}
	g.logger.WithFields(log.Fields{
		"idempotency_key": key,
		"status":          status,
	}).Debug("replaying stored response")
	return &Response{Status: status, Body: record.ResponseBody}, nil
}

// Complete сохраняет ответ для ключа: 2xx как done, остальные как failed.
// Запись идёт в контексте, отвязанном от отмены запроса: заказ к этому моменту
// уже сохранён, и без ответа ключ навсегда остался бы в processing.
func (g *Guard) Complete(ctx context.Context, key string, status int, body []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completeTimeout)
	defer cancel()

	var err error
	switch domain.CompletionStatus(status) {
	case domain.IdempotencyStatusDone:
		err = g.repo.MarkDone(ctx, key, body, status)
	default:
		err = g.repo.MarkFailed(ctx, key, body, status)
	}
	if err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
}
