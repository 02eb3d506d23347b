package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

const randomAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRandomString returns n characters from an unambiguous
// uppercase alphabet using crypto/rand.
func GenerateRandomString(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand unavailable")
		}
		b[i] = randomAlphabet[idx.Int64()]
	}
	return string(b)
}

// FormatMoney renders an amount as "$85.00".
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
