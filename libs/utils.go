package libs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/labstack/gommon/random"
	"github.com/sethvargo/go-password/password"
	"go.opentelemetry.io/otel"
)

var tracerUtils = otel.Tracer("utils")

// UniqueUserName generates a username that will not collide with rows
// created by concurrent test workers: timestamp plus a random suffix.
func UniqueUserName(prefix string) string {
	if prefix == "" {
		prefix = "SCIMCHECK"
	}
	suffix := random.String(6, random.Uppercase, random.Numeric)
	return fmt.Sprintf("%s_%d_%s", strings.ToUpper(prefix), time.Now().UnixMilli(), suffix)
}

// GenerateTemporaryUserPassword generates a 32 character fixture password
// with digits mixed in, for seeding test user accounts.
func GenerateTemporaryUserPassword(ctx context.Context) (string, error) {
	_, span := tracerUtils.Start(ctx, "GenerateTemporaryUserPassword")
	defer span.End()

	res, err := password.Generate(32, 10, 0, false, false)
	if err != nil {
		return "", err
	}
	return res, nil
}

func GetAppName() string {
	appName := os.Getenv("OTEL_SERVICE_NAME")
	if appName == "" {
		appName = os.Getenv("APP_NAME")
		if appName == "" {
			appName = "scimcheck"
		}
	}
	return appName
}
