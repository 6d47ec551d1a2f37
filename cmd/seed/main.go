// Command seed loads users into the user directory from a CSV file and prints an API
// token for each of them. Rows are email,name[,role]; the first row is a header.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ArowuTest/crowdfund-backend/internal/config"
	"github.com/ArowuTest/crowdfund-backend/internal/logger"
	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	mongorepo "github.com/ArowuTest/crowdfund-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/crowdfund-backend/internal/validation"
	"github.com/ArowuTest/crowdfund-backend/pkg/jwt"
	"github.com/ArowuTest/crowdfund-backend/pkg/mongodb"
)

const defaultRole = "user"

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("CSV file path is required as a command line argument")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Storage.Driver != config.StorageMongoDB {
		log.Fatalf("seed writes to MongoDB; storage.driver is %q", cfg.Storage.Driver)
	}
	zlog, err := logger.New(logger.Config{Level: cfg.Log.Level, Output: "stderr"})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	tokens, err := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn)
	if err != nil {
		zlog.Fatalw("failed to build token service", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		zlog.Fatalw("failed to connect to MongoDB", "error", err)
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		zlog.Fatalw("failed to ensure indexes", "error", err)
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		zlog.Fatalw("failed to open CSV file", "path", os.Args[1], "error", err)
	}
	defer file.Close()

	s := &seeder{users: mongorepo.NewUserRepository(db), tokens: tokens, log: zlog}
	res, err := s.run(ctx, file, os.Stdout)
	if err != nil {
		zlog.Fatalw("seed failed", "error", err)
	}
	zlog.Infow("seed finished", "created", res.created, "existing", res.existing, "skipped", res.skipped)
}

type seeder struct {
	users  repositories.UserRepository
	tokens *jwt.TokenService
	log    *zap.SugaredLogger
}

type result struct {
	created  int
	existing int
	skipped  int
}

// run creates every user in r that is not in the directory yet and writes email,id,role,token
// for each valid row to out
func (s *seeder) run(ctx context.Context, r io.Reader, out io.Writer) (result, error) {
	var res result
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return res, fmt.Errorf("failed to parse CSV file: %w", err)
	}
	if len(records) < 2 {
		return res, errors.New("CSV file is empty or has only header")
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"email", "id", "role", "token"}); err != nil {
		return res, err
	}
	for i, record := range records[1:] {
		row := i + 2
		if len(record) < 2 {
			s.log.Warnw("row has fewer than 2 fields, skipping", "row", row)
			res.skipped++
			continue
		}
		email := strings.ToLower(strings.TrimSpace(record[0]))
		name := strings.TrimSpace(record[1])
		role := defaultRole
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			role = strings.ToLower(strings.TrimSpace(record[2]))
		}
		if !validation.Email(email) || name == "" {
			s.log.Warnw("row has an invalid email or empty name, skipping", "row", row, "email", email)
			res.skipped++
			continue
		}

		user, err := s.users.FindByEmail(ctx, email)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			user = &models.User{
				Email: email,
				Name:  name,
				Stats: models.UserStats{TotalContributed: models.ZeroMoney(), TotalRaised: models.ZeroMoney()},
			}
			if err := s.users.Create(ctx, user); err != nil {
				return res, fmt.Errorf("row %d: create user: %w", row, err)
			}
			res.created++
		case err != nil:
			return res, fmt.Errorf("row %d: find user: %w", row, err)
		default:
			res.existing++
		}

		token, err := s.tokens.Issue(user.ID.Hex(), user.Email, role)
		if err != nil {
			return res, fmt.Errorf("row %d: %w", row, err)
		}
		if err := w.Write([]string{user.Email, user.ID.Hex(), role, token}); err != nil {
			return res, err
		}
	}
	w.Flush()
	return res, w.Error()
}
