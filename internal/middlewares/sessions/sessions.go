package sessions

import (
	"crypto/rand"
	"encoding/gob"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	injectSessionKey = "session"
	sessionDataKey   = "data"
)

type SessionData struct {
	id                  string    // session id
	IP                  string    // client ip address
	FlowID              string    // sign-up flow id
	CSRFToken           string    // csrf token
	CSRFExpiresAt       time.Time // csrf token expire time
	OAuthState          string    // pending oauth state
	OAuthStateExpiresAt time.Time // oauth state expire time
	LastSeen            time.Time // last request time
}

func (s SessionData) ID() string {
	return s.id
}

func (s *SessionData) HasFlow() bool {
	return s.FlowID != ""
}

func init() {
	gob.Register(SessionData{})
}

func GenerateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Could not generate session id", "error", err)
		return ""
	}
	return hex.EncodeToString(b)
}

func Get(ctx *fiber.Ctx) SessionData {
	session := ctx.Locals(injectSessionKey).(*session.Session)
	data, _ := session.Get(sessionDataKey).(SessionData)
	data.id = session.ID()
	return data
}

func Set(ctx *fiber.Ctx, data SessionData) {
	session := ctx.Locals(injectSessionKey).(*session.Session)
	session.Set(sessionDataKey, data)
}

func SessionMiddleware(store *session.Store) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sess, err := store.Get(ctx)
		if err != nil {
			return err
		}

		ctx.Locals(injectSessionKey, sess)
		if err := ctx.Next(); err != nil {
			return err
		}

		data, ok := sess.Get(sessionDataKey).(SessionData)
		if ok {
			data.IP = ctx.IP()
			data.LastSeen = time.Now()
			sess.Set(sessionDataKey, data)
			return sess.Save()
		}

		return nil
	}
}
