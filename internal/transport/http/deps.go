package http

import (
	"time"

	jwtinfra "github.com/aerosense/aerosense-api/internal/infrastructure/jwt"
	"github.com/aerosense/aerosense-api/internal/infrastructure/postgres"
	s3infra "github.com/aerosense/aerosense-api/internal/infrastructure/s3"
	"github.com/aerosense/aerosense-api/internal/infrastructure/smtp"
	"github.com/aerosense/aerosense-api/internal/transport/http/handler"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	DB             handler.Pinger // connection pool, used by the health check
	UserRepo       *postgres.UserRepo
	ProfileRepo    *postgres.ProfileRepo
	ResetTokenRepo *postgres.ResetTokenRepo
	ObjectStore    *s3infra.Store
	Mailer         smtp.Mailer
	JWTProvider    *jwtinfra.Provider
	OTPTTL         time.Duration
}
