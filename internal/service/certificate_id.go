package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	certificateIDPrefix    = "CERT"
	certificateSuffixChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	certificateSuffixLen   = 6
)

// GenerateCertificateID returns CERT-<unix millis in base36>-<6 random base36 chars>.
func GenerateCertificateID(now time.Time) (string, error) {
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	var suffix strings.Builder
	max := big.NewInt(int64(len(certificateSuffixChars)))
	for i := 0; i < certificateSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random suffix: %w", err)
		}
		suffix.WriteByte(certificateSuffixChars[n.Int64()])
	}
	return fmt.Sprintf("%s-%s-%s", certificateIDPrefix, stamp, suffix.String()), nil
}
