package pkg

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrTokenParseFailure = errors.New("token parse failure")
)

const DefaultAccessTTL = 24 * time.Hour

// Claims 登录后签发，之后每个需要身份的请求都校验一次
type Claims struct {
	UserID uint64 `json:"id"`
	jwt.RegisteredClaims
}

type JWT struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	// now 测试时替换
	now func() time.Time
}

func NewJWT(secret, issuer string, ttl time.Duration) *JWT {
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &JWT{Secret: []byte(secret), Issuer: issuer, TTL: ttl, now: time.Now}
}

func (j *JWT) Issue(userID uint64) (string, error) {
	now := j.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	})
	return token.SignedString(j.Secret)
}

func (j *JWT) clock() time.Time {
	if j.now == nil {
		return time.Now()
	}
	return j.now()
}

// Parse 校验签名、算法与有效期
func (j *JWT) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.clock),
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return j.Secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalid
		default:
			return nil, errors.Join(ErrTokenParseFailure, err)
		}
	}
	if !token.Valid {
		return nil, ErrTokenParseFailure
	}
	return token.Claims.(*Claims), nil
}
