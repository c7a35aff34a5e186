package graphsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/followgraph/internal/domain"
	"github.com/mkrupp/followgraph/internal/infra/logging"
	http_ "github.com/mkrupp/followgraph/internal/infra/transport/http"
)

var (
	// ErrNoName is returned when the user name is missing from the request.
	ErrNoName = errors.New("no name")
	// ErrNoFollowee is returned when the followee is missing from the request.
	ErrNoFollowee = errors.New("no followee")
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport handles HTTP requests for the graph service.
type HTTPTransport struct {
	graphSvc *GraphService
	log      logging.Logger
	cfg      HTTPTransportConfig
	mux      *http.ServeMux
}

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It sets up routes for the graph service endpoints:
// - POST /users: Register a user
// - GET /users: List user names
// - GET /users/{name}: Get a user and its followees
// - GET /users/{name}/text: Get the textual representation of a user
// - POST /users/{name}/followees: Follow a name
// - DELETE /users/{name}/followees/{followee}: Unfollow a name
// - GET /users/{name}/mutual/{other}: Count shared followees
// - GET /users/{name}/friends/{other}: Check whether two users follow each other.
func NewHTTPTransport(graphSvc *GraphService, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		graphSvc: graphSvc,
		log:      logging.GetLogger("svc.graphsvc.http_transport"),
		cfg:      cfg,
		mux:      http.NewServeMux(),
	}

	ht.mux.HandleFunc("POST /users", ht.HandleRegister)
	ht.mux.HandleFunc("GET /users", ht.HandleList)
	ht.mux.HandleFunc("GET /users/{name}", ht.HandleGet)
	ht.mux.HandleFunc("GET /users/{name}/text", ht.HandleRender)
	ht.mux.HandleFunc("POST /users/{name}/followees", ht.HandleFollow)
	ht.mux.HandleFunc("DELETE /users/{name}/followees/{followee}", ht.HandleUnfollow)
	ht.mux.HandleFunc("GET /users/{name}/mutual/{other}", ht.HandleMutual)
	ht.mux.HandleFunc("GET /users/{name}/friends/{other}", ht.HandleFriends)

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var status int

	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrNotFollowing):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUserAlreadyExists), errors.Is(err, domain.ErrAlreadyFollowing):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrFolloweeListFull):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
	}

	http.Error(w, http.StatusText(status), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

func (ht *HTTPTransport) requestLog(r *http.Request) logging.Logger {
	return ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
}

func logResult(ctx context.Context, log logging.Logger, err error, failMsg, okMsg string) {
	if err != nil {
		log.ErrorContext(ctx, failMsg, "error", err)
	} else {
		log.DebugContext(ctx, okMsg)
	}
}

// HandleRegister processes user registration requests.
// Expects form parameter: name.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		logResult(ctx, log, err, "user register failed", "user registered")
	}(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse form: %w", err)
	}

	name := r.FormValue("name")
	if name == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return ErrNoName
	}

	if err := ht.graphSvc.RegisterUser(r.Context(), name); err != nil {
		writeError(w, err)

		return fmt.Errorf("register user: %w", err)
	}

	u, err := ht.graphSvc.GetUser(r.Context(), name)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("get user: %w", err)
	}

	return writeJSON(w, http.StatusCreated, domain.NewUserResponse(u))
}

// HandleList returns the names of all users.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleList(w, r)
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		logResult(ctx, log, err, "list users failed", "users listed")
	}(r.Context())

	names, err := ht.graphSvc.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("list users: %w", err)
	}

	return writeJSON(w, http.StatusOK, names)
}

// HandleGet returns a user and its followees.
func (ht *HTTPTransport) HandleGet(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGet(w, r)
}

func (ht *HTTPTransport) handleGet(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		logResult(ctx, log, err, "get user failed", "user fetched")
	}(r.Context())

	u, err := ht.graphSvc.GetUser(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("get user: %w", err)
	}

	return writeJSON(w, http.StatusOK, domain.NewUserResponse(u))
}

// HandleRender returns the textual representation of a user.
func (ht *HTTPTransport) HandleRender(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRender(w, r)
}

func (ht *HTTPTransport) handleRender(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		logResult(ctx, log, err, "render user failed", "user rendered")
	}(r.Context())

	text, err := ht.graphSvc.Render(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("render user: %w", err)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if _, err := w.Write([]byte(text)); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// HandleFollow processes follow requests.
// Expects form parameter: followee.
func (ht *HTTPTransport) HandleFollow(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleFollow(w, r)
}

func (ht *HTTPTransport) handleFollow(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		logResult(ctx, log, err, "follow failed", "followed")
	}(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse form: %w", err)
	}

	name := r.PathValue("name")

	followee := r.FormValue("followee")
	if followee == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return ErrNoFollowee
	}

	log = log.With(logging.Group("follow", "user", name, "followee", followee))

	if err := ht.graphSvc.Follow(r.Context(), name, followee); err != nil {
		writeError(w, err)

		return fmt.Errorf("follow: %w", err)
	}

	u, err := ht.graphSvc.GetUser(r.Context(), name)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("get user: %w", err)
	}

	return writeJSON(w, http.StatusCreated, domain.NewUserResponse(u))
}

// HandleUnfollow processes unfollow requests.
func (ht *HTTPTransport) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUnfollow(w, r)
}

func (ht *HTTPTransport) handleUnfollow(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		logResult(ctx, log, err, "unfollow failed", "unfollowed")
	}(r.Context())

	name, followee := r.PathValue("name"), r.PathValue("followee")

	log = log.With(logging.Group("follow", "user", name, "followee", followee))

	if err := ht.graphSvc.Unfollow(r.Context(), name, followee); err != nil {
		writeError(w, err)

		return fmt.Errorf("unfollow: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// HandleMutual returns the number of names followed by both users.
func (ht *HTTPTransport) HandleMutual(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleMutual(w, r)
}

func (ht *HTTPTransport) handleMutual(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		logResult(ctx, log, err, "count mutual failed", "mutual counted")
	}(r.Context())

	name, other := r.PathValue("name"), r.PathValue("other")

	count, err := ht.graphSvc.CountMutual(r.Context(), name, other)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("count mutual: %w", err)
	}

	return writeJSON(w, http.StatusOK, domain.MutualResponse{User: name, Other: other, Count: count})
}

// HandleFriends reports whether both users follow each other.
func (ht *HTTPTransport) HandleFriends(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleFriends(w, r)
}

func (ht *HTTPTransport) handleFriends(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		logResult(ctx, log, err, "friends check failed", "friends checked")
	}(r.Context())

	name, other := r.PathValue("name"), r.PathValue("other")

	friends, err := ht.graphSvc.AreFriends(r.Context(), name, other)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("are friends: %w", err)
	}

	return writeJSON(w, http.StatusOK, domain.FriendsResponse{User: name, Other: other, Friends: friends})
}
