// Package bootstrap wires the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData fills an empty database outside production.
	SeedDemoData bool
}

// Runtime holds the connections a process needs and how to release them.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime connects to DB and Redis, starts tracing and optionally seeds.
// Redis may be nil when unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  cfg.OTelServiceName,
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rt := &Runtime{DB: db, Redis: cache.GetClient(), shutdownTracing: shutdown}

	if opts.SeedDemoData && !cfg.IsProduction() {
		if err := seedIfEmpty(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return rt, nil
}

// Close flushes traces. The server closes DB and Redis itself.
func (r *Runtime) Close(ctx context.Context) error {
	if r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

func seedIfEmpty(ctx context.Context, db *gorm.DB) error {
	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.InfoContext(ctx, "skipping demo seed, users already exist", slog.Int64("users", users))
		return nil
	}
	_, err := seed.Seed(ctx, db, seed.DefaultOptions())
	return err
}

// ErrUserNotFound is returned by SetRole for an unknown account.
var ErrUserNotFound = errors.New("user not found")

// SetRole changes the role of the user identified by numeric ID, email or
// username. It reports whether the role changed.
func SetRole(ctx context.Context, db *gorm.DB, ident string, role models.Role) (*models.User, bool, error) {
	if !role.Valid() {
		return nil, false, fmt.Errorf("invalid role %q", role)
	}

	q := db.WithContext(ctx)
	if id, err := strconv.ParseUint(ident, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		v := strings.ToLower(strings.TrimSpace(ident))
		q = q.Where("email = ? OR username = ?", v, v)
	}

	var user models.User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}
	if user.Role == role {
		return &user, false, nil
	}

	if err := db.WithContext(ctx).Model(&user).Update("role", role).Error; err != nil {
		return nil, false, err
	}
	user.Role = role
	// Cached profiles would keep the old role until expiry.
	cache.InvalidateUser(ctx, user.ID)
	return &user, true, nil
}

// ListByRole returns users holding role, oldest first.
func ListByRole(ctx context.Context, db *gorm.DB, role models.Role) ([]models.User, error) {
	var users []models.User
	err := db.WithContext(ctx).Where("role = ?", role).Order("id").Find(&users).Error
	return users, err
}
