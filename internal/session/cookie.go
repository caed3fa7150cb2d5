package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/models"
)

const (
	credentialCookie = "iris_credential"
	identityCookie   = "iris_identity"
	noticeCookie     = "iris_notice"
	flagCookiePrefix = "iris_flag_"

	durableMaxAge = 30 * 24 * time.Hour
)

// Codec signs and encrypts the session cookies. One Codec serves the whole
// process; Bind produces a per-request Store.
type Codec struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewCodec builds a Codec. Nil keys are replaced with random ones, which
// invalidates every session on restart.
func NewCodec(hashKey, blockKey []byte, secure bool) *Codec {
	if hashKey == nil {
		hashKey = securecookie.GenerateRandomKey(64)
	}
	if blockKey == nil {
		blockKey = securecookie.GenerateRandomKey(32)
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(durableMaxAge.Seconds()))
	return &Codec{sc: sc, secure: secure}
}

var _ Store = (*CookieStore)(nil)

// Bind returns a Store reading from r's cookies and writing to w.
func (c *Codec) Bind(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{codec: c, w: w, r: r, flags: make(map[Flag]bool)}
}

// CookieStore keeps the session in the browser: identity and credential under
// two durable cookies, flags and the pending notice under session cookies.
// Values written during a request are visible to later reads in that request.
type CookieStore struct {
	codec *Codec
	w     http.ResponseWriter
	r     *http.Request

	loaded     bool
	identity   *models.Identity
	credential models.Credential
	flags      map[Flag]bool
	notice     *feedback.Notice
}

func (s *CookieStore) load() {
	if s.loaded {
		return
	}
	s.loaded = true

	var cred string
	if s.decode(credentialCookie, &cred) {
		s.credential = models.Credential(cred)
	}
	var id models.Identity
	if s.decode(identityCookie, &id) {
		s.identity = &id
	}
	var n feedback.Notice
	if s.decode(noticeCookie, &n) {
		s.notice = &n
	}
	for _, f := range []Flag{FlagLoginOTPPending, FlagResetOTPSent} {
		var v bool
		if s.decode(flagCookiePrefix+string(f), &v) && v {
			s.flags[f] = true
		}
	}
}

// decode reads one cookie; missing or tampered cookies count as absent.
func (s *CookieStore) decode(name string, dst any) bool {
	ck, err := s.r.Cookie(name)
	if err != nil || ck.Value == "" {
		return false
	}
	return s.codec.sc.Decode(name, ck.Value, dst) == nil
}

func (s *CookieStore) write(name string, value any, maxAge time.Duration) error {
	encoded, err := s.codec.sc.Encode(name, value)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", name, err)
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   s.codec.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *CookieStore) expire(name string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.codec.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *CookieStore) Identity() (models.Identity, bool) {
	s.load()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

func (s *CookieStore) Credential() (models.Credential, bool) {
	s.load()
	return s.credential, !s.credential.Empty()
}

func (s *CookieStore) SetSession(identity models.Identity, cred models.Credential) error {
	s.load()
	if err := s.write(credentialCookie, string(cred), durableMaxAge); err != nil {
		return err
	}
	if err := s.write(identityCookie, identity, durableMaxAge); err != nil {
		return err
	}
	s.identity = &identity
	s.credential = cred
	return nil
}

func (s *CookieStore) ClearSession() error {
	s.load()
	s.expire(credentialCookie)
	s.expire(identityCookie)
	s.identity = nil
	s.credential = ""
	return nil
}

func (s *CookieStore) SetFlag(f Flag) error {
	s.load()
	if err := s.write(flagCookiePrefix+string(f), true, 0); err != nil {
		return err
	}
	s.flags[f] = true
	return nil
}

func (s *CookieStore) HasFlag(f Flag) bool {
	s.load()
	return s.flags[f]
}

func (s *CookieStore) ClearFlag(f Flag) error {
	s.load()
	s.expire(flagCookiePrefix + string(f))
	delete(s.flags, f)
	return nil
}

func (s *CookieStore) SetNotice(n feedback.Notice) error {
	s.load()
	if err := s.write(noticeCookie, n, 0); err != nil {
		return err
	}
	s.notice = &n
	return nil
}

func (s *CookieStore) TakeNotice() (feedback.Notice, bool) {
	s.load()
	if s.notice == nil {
		return feedback.Notice{}, false
	}
	n := *s.notice
	s.notice = nil
	s.expire(noticeCookie)
	return n, true
}
