package session

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"

	"ticketlogger/internal/config"
)

const CookieName = "JSESSIONID"

// NewStore builds the session store. SESSION_STORE=redis keeps sessions in redis,
// anything else keeps them in process memory.
func NewStore(cfg config.Config) (*fsession.Store, fiber.Storage, error) {
	var storage fiber.Storage
	if cfg.SessionStore == "redis" {
		rs, err := NewRedisStorage(RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, nil, fmt.Errorf("redis session store: %w", err)
		}
		storage = rs
	}
	store := fsession.New(fsession.Config{
		Expiration:     30 * time.Minute,
		Storage:        storage,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: "Lax",
	})
	return store, storage, nil
}
