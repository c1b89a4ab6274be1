package session

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
	"github.com/google/uuid"

	"github.com/StefanBrandt/FotoFix/internal/pkg/cache"
	"github.com/StefanBrandt/FotoFix/internal/pkg/env"
)

const buyerSessionKey = "buyer_session_id"

var sessionStore *session.Store

// NewSessionStore creates the buyer session store backed by Redis. The buyer
// session groups one browser's uploads and checkout attempts; it carries no
// authentication.
func NewSessionStore() *session.Store {
	// Reuse the cache connection settings for the session storage
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	// Sessions live in database 1, the status cache uses DB 0
	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		Expiration:     time.Hour * 1,
		KeyLookup:      "cookie:session_id",
	})

	return sessionStore
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// BuyerSessionID returns the stable identifier for the caller's buyer session,
// creating one on first use.
func BuyerSessionID(c *fiber.Ctx) (string, error) {
	if sessionStore == nil {
		NewSessionStore()
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return "", err
	}

	if id, ok := sess.Get(buyerSessionKey).(string); ok && id != "" {
		return id, nil
	}

	id := uuid.New().String()
	sess.Set(buyerSessionKey, id)
	if err := sess.Save(); err != nil {
		return "", err
	}
	return id, nil
}
