// Package seed loads development fixtures (users and their items) from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type Fixtures struct {
	Users []models.User `yaml:"users"`
	Items []ItemFixture `yaml:"items"`
}

// ItemFixture is an item whose owner is named by email.
type ItemFixture struct {
	models.Item `yaml:",inline"`
	OwnerEmail  string `yaml:"owner_email"`
}

type Result struct {
	Users   int
	Items   int
	Skipped int
}

func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Apply creates the fixture users and items through the services. A user
// whose email is already registered is skipped together with their items,
// so applying the same file twice is harmless.
func Apply(ctx context.Context, users domain.UserService, items domain.ItemService, f *Fixtures, logger *zerolog.Logger) (Result, error) {
	var res Result
	owners := make(map[string]int64, len(f.Users))

	for i := range f.Users {
		u := f.Users[i]
		created, err := users.CreateUser(ctx, &u)
		if errors.Is(err, domain.ErrConflict) {
			logger.Debug().Str("email", u.Email).Msg("seed user exists, skipping")
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
		owners[u.Email] = created.ID
		res.Users++
	}

	for i := range f.Items {
		it := f.Items[i]
		ownerID, ok := owners[it.OwnerEmail]
		if !ok {
			res.Skipped++
			continue
		}
		if _, err := items.CreateItem(ctx, ownerID, &it.Item); err != nil {
			return res, fmt.Errorf("failed to seed item %s: %w", it.Name, err)
		}
		res.Items++
	}

	logger.Info().
		Int("users", res.Users).
		Int("items", res.Items).
		Int("skipped", res.Skipped).
		Msg("seed applied")
	return res, nil
}
