package graphsvc

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mkrupp/followgraph/internal/domain"
	"github.com/mkrupp/followgraph/internal/infra/logging"
	"github.com/mkrupp/followgraph/internal/repo/user"
)

// GraphConfig contains configuration parameters for the graph service.
type GraphConfig struct {
	// MaxFollows is the number of names a single user can follow
	MaxFollows int `env:"MAX_FOLLOWS" default:"10"`

	// SeedFile is an optional YAML file with users to import on startup
	SeedFile string `env:"SEED_FILE" default:""`
}

// GraphService manages users and their followee lists.
// Follow and unfollow run inside a repository transaction, so concurrent
// calls on the same user never lose updates, even across processes sharing
// one database.
type GraphService struct {
	Config   GraphConfig
	UserRepo user.Repository
	Log      logging.Logger
}

// NewGraphService creates a new GraphService with the given user repository factory and configuration.
// Returns an error if the user repository cannot be created.
func NewGraphService(repoFactory user.RepositoryFactory, cfg GraphConfig) (*GraphService, error) {
	log := logging.GetLogger("svc.graphsvc.graph_service")

	userRepo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &GraphService{
		Config:   cfg,
		UserRepo: userRepo,
		Log:      log,
	}, nil
}

// RegisterUser creates a user with an empty followee list.
// Returns ErrUserAlreadyExists if the name is taken.
func (s *GraphService) RegisterUser(ctx context.Context, name string) (err error) {
	log := s.Log.With(logging.Group("user", "name", name))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	if err := s.UserRepo.CreateUser(ctx, name); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// ListUsers returns the names of all registered users.
func (s *GraphService) ListUsers(ctx context.Context) ([]string, error) {
	names, err := s.UserRepo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return names, nil
}

// GetUser loads the named user with its followees.
// Returns ErrUserNotFound if the user does not exist.
func (s *GraphService) GetUser(ctx context.Context, name string) (*domain.User, error) {
	rec, ok, err := s.UserRepo.GetUser(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("get user %q: %w", name, domain.ErrUserNotFound)
	}

	return domain.RestoreUser(rec.Name, s.Config.MaxFollows, rec.Followees), nil
}

// Follow makes name follow followee. The followee does not have to be a
// registered user.
// Returns ErrAlreadyFollowing or ErrFolloweeListFull when the followee list
// rejects the name.
func (s *GraphService) Follow(ctx context.Context, name, followee string) (err error) {
	log := s.Log.With(logging.Group("follow", "user", name, "followee", followee))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "follow failed", "error", err)
		} else {
			log.DebugContext(ctx, "followed")
		}
	}()

	return s.mutate(ctx, name, func(u *domain.User) error {
		if u.AddFollowee(followee) {
			return nil
		}

		if u.IsFull() {
			return domain.ErrFolloweeListFull
		}

		return domain.ErrAlreadyFollowing
	})
}

// Unfollow removes followee from the followee list of name.
// Returns ErrNotFollowing if name does not follow followee.
func (s *GraphService) Unfollow(ctx context.Context, name, followee string) (err error) {
	log := s.Log.With(logging.Group("follow", "user", name, "followee", followee))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "unfollow failed", "error", err)
		} else {
			log.DebugContext(ctx, "unfollowed")
		}
	}()

	return s.mutate(ctx, name, func(u *domain.User) error {
		if !u.RemoveFollowee(followee) {
			return domain.ErrNotFollowing
		}

		return nil
	})
}

func (s *GraphService) mutate(ctx context.Context, name string, fn func(u *domain.User) error) error {
	err := s.UserRepo.UpdateFollowees(ctx, name, func(followees []string) ([]string, error) {
		u := domain.RestoreUser(name, s.Config.MaxFollows, followees)
		if err := fn(u); err != nil {
			return nil, err
		}

		return u.Followees(), nil
	})
	if err != nil {
		return fmt.Errorf("update followees: %w", err)
	}

	return nil
}

// CountMutual returns the number of names followed by both name and other.
func (s *GraphService) CountMutual(ctx context.Context, name, other string) (int, error) {
	u, o, err := s.getPair(ctx, name, other)
	if err != nil {
		return 0, err
	}

	return u.CountMutual(o), nil
}

// AreFriends reports whether name and other follow each other.
func (s *GraphService) AreFriends(ctx context.Context, name, other string) (bool, error) {
	u, o, err := s.getPair(ctx, name, other)
	if err != nil {
		return false, err
	}

	return u.IsFriendOf(o), nil
}

// Render returns the textual representation of the named user.
func (s *GraphService) Render(ctx context.Context, name string) (string, error) {
	u, err := s.GetUser(ctx, name)
	if err != nil {
		return "", err
	}

	return u.String(), nil
}

func (s *GraphService) getPair(ctx context.Context, name, other string) (*domain.User, *domain.User, error) {
	var u, o *domain.User

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		u, err = s.GetUser(gctx, name)

		return err
	})

	g.Go(func() (err error) {
		o, err = s.GetUser(gctx, other)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("get pair: %w", err)
	}

	return u, o, nil
}

// Close releases resources held by the service, such as database connections.
// Returns an error if cleanup fails.
func (s *GraphService) Close() error {
	if err := s.UserRepo.Close(); err != nil {
		return fmt.Errorf("close user repo: %w", err)
	}

	return nil
}
