package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewaySignatureHeader carries the USSD gateway's request signature
const GatewaySignatureHeader = "X-Gateway-Signature"

// ValidateGatewaySignature checks that a USSD request was signed by the
// gateway with the shared secret. Form posts are signed over the URL plus
// the sorted form parameters; JSON posts over the URL plus the raw body.
func ValidateGatewaySignature(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get(GatewaySignatureHeader)
		if signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing gateway signature",
			})
		}

		var payload string
		if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationForm) {
			params := make(map[string]string)
			c.Request().PostArgs().VisitAll(func(key, value []byte) {
				params[string(key)] = string(value)
			})
			payload = formPayload(params)
		} else {
			payload = string(c.Body())
		}

		expected := CalculateSignature(secret, getFullURL(c), payload)
		if !hmac.Equal([]byte(signature), []byte(expected)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// getFullURL constructs the full URL for the request
func getFullURL(c *fiber.Ctx) string {
	protocol := "https"
	if c.Protocol() == "http" {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s%s", protocol, c.Hostname(), c.Path())
}

// formPayload concatenates form parameters sorted by key
func formPayload(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	return b.String()
}

// CalculateSignature returns the base64 HMAC-SHA256 of url+payload
func CalculateSignature(secret, url, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(url + payload))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
