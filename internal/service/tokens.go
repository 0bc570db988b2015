package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenKindSession = "session"
	tokenKindReset   = "reset"
)

// tokenClaims 重置令牌的 Fingerprint 绑定当前密码哈希，改密后旧链接失效
type tokenClaims struct {
	Kind        string `json:"kind"`
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager 签发 / 校验会话与重置密码令牌（HS256）
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

func NewTokenManager(secret string, sessionTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), sessionTTL: sessionTTL, resetTTL: resetTTL}
}

func (m *TokenManager) SessionTTL() time.Duration { return m.sessionTTL }

func (m *TokenManager) sign(kind string, userID uint, fp string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := tokenClaims{
		Kind:        kind,
		Fingerprint: fp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *TokenManager) parse(kind, raw string) (uint, *tokenClaims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Kind != kind {
		return 0, nil, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, nil, ErrInvalidToken
	}
	return uint(id), &claims, nil
}

// IssueSession 登录会话令牌，也用作 API bearer token
func (m *TokenManager) IssueSession(userID uint) (string, time.Time, error) {
	return m.sign(tokenKindSession, userID, "", m.sessionTTL)
}

func (m *TokenManager) ParseSession(raw string) (uint, error) {
	id, _, err := m.parse(tokenKindSession, raw)
	return id, err
}

func (m *TokenManager) IssueReset(userID uint, passwordHash string) (string, error) {
	tok, _, err := m.sign(tokenKindReset, userID, fingerprint(passwordHash), m.resetTTL)
	return tok, err
}

// ParseReset 返回用户 ID 与签发时的密码指纹
func (m *TokenManager) ParseReset(raw string) (uint, string, error) {
	id, claims, err := m.parse(tokenKindReset, raw)
	if err != nil {
		return 0, "", err
	}
	return id, claims.Fingerprint, nil
}

func fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
