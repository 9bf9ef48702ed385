// Package resumeservice implements the ownership-checked operations behind
// the REST API. Every read-then-write sequence runs in one transaction.
package resumeservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/auth"
	"github.com/starford/resumectl/internal/database"
	"github.com/starford/resumectl/internal/models"
)

// Events receives document change notifications after a successful commit.
type Events interface {
	PublishDocumentEvent(username, kind string, documentID int64)
}

type noopEvents struct{}

func (noopEvents) PublishDocumentEvent(string, string, int64) {}

// Service coordinates models, auth and event publishing.
type Service struct {
	db         *database.DB
	tokens     *auth.Tokens
	bcryptCost int
	events     Events
	sections   *cache.Cache
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEvents sets the document event sink.
func WithEvents(e Events) Option {
	return func(s *Service) { s.events = e }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSectionsTTL sets how long the global section list is cached.
func WithSectionsTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sections = cache.New(ttl, 2*ttl) }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// New creates a service over db that signs tokens with tokens.
func New(db *database.DB, tokens *auth.Tokens, opts ...Option) *Service {
	s := &Service{
		db:         db,
		tokens:     tokens,
		bcryptCost: 10,
		events:     noopEvents{},
		sections:   cache.New(5*time.Minute, 10*time.Minute),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ValidateOwnership loads the kind record identified by key and checks that
// username owns it. A missing record is NotFound; someone else's record is
// Forbidden.
func ValidateOwnership[K any, T models.Owned](
	ctx context.Context, q database.Querier, username, kind string, key K, get func(context.Context, database.Querier, K) (T, error),
) (T, error) {
	item, err := get(ctx, q, key)
	if err != nil {
		var zero T
		return zero, err
	}
	if item.OwnerName() != username {
		var zero T
		return zero, apperr.Forbidden("%s %v does not belong to user %q.", kind, key, username)
	}
	return item, nil
}

func (s *Service) ownedDocument(ctx context.Context, q database.Querier, username string, id int64) (*models.Document, error) {
	return ValidateOwnership(ctx, q, username, "Document", id, models.GetDocument)
}

type deletable interface {
	models.Owned
	Delete(context.Context, database.Querier) error
}

// deleteOwned deletes the record identified by key after an ownership check.
// A missing record is not an error. guard may refuse the delete.
func deleteOwned[K any, T deletable](
	ctx context.Context, q database.Querier, username, kind string, key K, get func(context.Context, database.Querier, K) (T, error), guard func(T) error,
) (T, error) {
	item, err := ValidateOwnership(ctx, q, username, kind, key, get)
	if apperr.KindOf(err) == apperr.KindNotFound {
		var zero T
		return zero, nil
	}
	if err != nil {
		return item, err
	}
	if guard != nil {
		if err := guard(item); err != nil {
			return item, err
		}
	}
	if err := item.Delete(ctx, q); err != nil {
		return item, fmt.Errorf("resumeservice: delete %s: %w", kind, err)
	}
	return item, nil
}
