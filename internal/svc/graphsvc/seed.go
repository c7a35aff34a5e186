package graphsvc

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkrupp/followgraph/internal/domain"
	"github.com/mkrupp/followgraph/internal/infra/logging"
)

// SeedUser is a single user entry of a seed file.
type SeedUser struct {
	Name    string   `yaml:"name"`
	Follows []string `yaml:"follows"`
}

// SeedFile is the YAML document accepted by Seed.
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// SeedStats summarizes the outcome of a seed import.
type SeedStats struct {
	UsersCreated    int
	FollowsApplied  int
	FollowsRejected int
}

// ParseSeedFile reads and decodes a YAML seed file.
func ParseSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	return &seed, nil
}

// Seed imports the users of the YAML file at path. Users that do not exist
// are registered, then follows are applied in file order. Follows rejected
// by the followee list (duplicate or full) are logged and skipped.
func (s *GraphService) Seed(ctx context.Context, path string) (SeedStats, error) {
	seed, err := ParseSeedFile(path)
	if err != nil {
		s.Log.ErrorContext(ctx, "seed import failed", "seed", path, "error", err)

		return SeedStats{}, err
	}

	return s.ImportSeed(ctx, seed)
}

// ImportSeed applies an already decoded seed document.
func (s *GraphService) ImportSeed(ctx context.Context, seed *SeedFile) (stats SeedStats, err error) {
	defer func() {
		if err != nil {
			s.Log.ErrorContext(ctx, "seed import failed", "error", err)
		} else {
			s.Log.InfoContext(ctx, "seed imported", logging.Group("stats",
				"users_created", stats.UsersCreated,
				"follows_applied", stats.FollowsApplied,
				"follows_rejected", stats.FollowsRejected,
			))
		}
	}()

	for _, su := range seed.Users {
		err := s.RegisterUser(ctx, su.Name)

		switch {
		case err == nil:
			stats.UsersCreated++
		case errors.Is(err, domain.ErrUserAlreadyExists):
		default:
			return stats, fmt.Errorf("register %q: %w", su.Name, err)
		}
	}

	for _, su := range seed.Users {
		for _, followee := range su.Follows {
			err := s.Follow(ctx, su.Name, followee)

			switch {
			case err == nil:
				stats.FollowsApplied++
			case errors.Is(err, domain.ErrAlreadyFollowing), errors.Is(err, domain.ErrFolloweeListFull):
				stats.FollowsRejected++
			default:
				return stats, fmt.Errorf("follow %q -> %q: %w", su.Name, followee, err)
			}
		}
	}

	return stats, nil
}
