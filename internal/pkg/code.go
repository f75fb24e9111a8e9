package pkg

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// ResetCodeLength 密码重置验证码位数
const ResetCodeLength = 6

var ten = big.NewInt(10)

// RandDigits 生成 n 位十进制随机串，允许前导 0
func RandDigits(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("digits: length must be positive")
	}
	var b strings.Builder
	b.Grow(n)
	for range n {
		x, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + x.Int64()))
	}
	return b.String(), nil
}

func NewResetCode() (string, error) {
	return RandDigits(ResetCodeLength)
}
