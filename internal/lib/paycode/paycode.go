// Package paycode генерирует короткие коды для комментария к переводу.
// По коду администратор сопоставляет входящий перевод с заявкой на оплату.
package paycode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length длина генерируемого кода.
const Length = 6

// Generate возвращает случайный код из заглавных латинских букв и цифр.
func Generate() (string, error) {
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("paycode.Generate: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
