// Package router exposes the recipe service over HTTP.
// It wires the chi routes, unmarshals request bodies, maps service errors
// to status codes and writes JSON responses.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/recipes/internal/auth"
	"github.com/patric-chuzhbe/recipes/internal/logger"
	"github.com/patric-chuzhbe/recipes/internal/models"
	"github.com/patric-chuzhbe/recipes/internal/service"
)

const (
	compressionLevel = 5
	corsMaxAge       = 300
)

type initOptions struct {
	allowedOrigins []string
}

// InitOption configures the router.
type InitOption func(*initOptions)

// WithAllowedOrigins enables CORS for the given origins. "*" allows any origin.
func WithAllowedOrigins(origins []string) InitOption {
	return func(options *initOptions) {
		options.allowedOrigins = origins
	}
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         corsMaxAge,
	})
}

type tokenKeeper interface {
	Issue(userID int, username string) (string, error)
	Authenticate(h http.Handler) http.Handler
}

type storageInspector interface {
	Ping(ctx context.Context) error
	GetStats(ctx context.Context) (models.InternalStatsResponse, error)
}

type trustedNetworkChecker interface {
	TrustedOnly(h http.Handler) http.Handler
}

// Router holds the HTTP handlers of the service.
type Router struct {
	users       service.UserService
	ingredients service.IngredientService
	recipes     service.RecipeService
	tokens      tokenKeeper
	db          storageInspector
	ipChecker   trustedNetworkChecker
	validate    *validator.Validate
}

func writeJSON(response http.ResponseWriter, statusCode int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)

	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder(response).Encode()`: ", zap.Error(err))
	}
}

func writeError(response http.ResponseWriter, statusCode int, message string) {
	writeJSON(response, statusCode, models.GenericResponse{
		Status: models.StatusError,
		Error:  message,
	})
}

func (router *Router) decodeAuthRequest(request *http.Request) (*models.AuthRequest, error) {
	var requestDTO models.AuthRequest
	if err := json.NewDecoder(request.Body).Decode(&requestDTO); err != nil {
		return nil, err
	}
	if err := router.validate.Struct(requestDTO); err != nil {
		return nil, err
	}

	return &requestDTO, nil
}

func (router *Router) issueToken(response http.ResponseWriter, userID int, username string) {
	token, err := router.tokens.Issue(userID, username)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.tokens.Issue()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to issue a token")
		return
	}

	writeJSON(response, http.StatusOK, models.AuthResponse{Token: token})
}

// PostAuthlogin handles POST /auth/login. Wrong credentials answer 403.
func (router *Router) PostAuthlogin(response http.ResponseWriter, request *http.Request) {
	requestDTO, err := router.decodeAuthRequest(request)
	if err != nil {
		writeError(response, http.StatusBadRequest, err.Error())
		return
	}

	authorized, err := router.users.Authorize(request.Context(), requestDTO.Username, requestDTO.Password)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.users.Authorize()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to authorize")
		return
	}
	if !authorized {
		writeError(response, http.StatusForbidden, "invalid username or password")
		return
	}

	usr, err := router.users.GetUserByUsername(request.Context(), requestDTO.Username)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.users.GetUserByUsername()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to read the user")
		return
	}
	if usr == nil {
		writeError(response, http.StatusInternalServerError, "user not found after authorization")
		return
	}

	router.issueToken(response, usr.ID, usr.Username)
}

// PostAuthsignup handles POST /auth/signup. A taken username answers 409.
func (router *Router) PostAuthsignup(response http.ResponseWriter, request *http.Request) {
	requestDTO, err := router.decodeAuthRequest(request)
	if err != nil {
		writeError(response, http.StatusBadRequest, err.Error())
		return
	}

	usr, err := router.users.Add(request.Context(), requestDTO.Username, requestDTO.Password)
	if errors.Is(err, service.ErrUserExists) {
		logger.Log.Infoln("Signup rejected: ", zap.Error(err))
		writeError(response, http.StatusConflict, "user already exists")
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.users.Add()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to create the user")
		return
	}

	router.issueToken(response, usr.ID, usr.Username)
}

// GetUsers handles GET /users. The user list is never exposed.
func (router *Router) GetUsers(response http.ResponseWriter, _ *http.Request) {
	writeError(response, http.StatusNotFound, "not found")
}

func (router *Router) writeUser(response http.ResponseWriter, request *http.Request, userID int) {
	usr, err := router.users.GetUserByID(request.Context(), userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.users.GetUserByID()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to read the user")
		return
	}
	if usr == nil {
		writeError(response, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(response, http.StatusOK, usr.ToPublic())
}

func tokenPayload(response http.ResponseWriter, request *http.Request) (*auth.TokenPayload, bool) {
	payload, ok := auth.PayloadFromContext(request.Context())
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
	}

	return payload, ok
}

// GetUsersme handles GET /users/me.
func (router *Router) GetUsersme(response http.ResponseWriter, request *http.Request) {
	payload, ok := tokenPayload(response, request)
	if !ok {
		return
	}

	router.writeUser(response, request, payload.ID)
}

// GetUsersid handles GET /users/{id}. Only the token owner may read the record.
func (router *Router) GetUsersid(response http.ResponseWriter, request *http.Request) {
	payload, ok := tokenPayload(response, request)
	if !ok {
		return
	}

	// A non-numeric id can never match the token owner.
	userID, err := strconv.Atoi(chi.URLParam(request, "id"))
	if err != nil || userID != payload.ID {
		writeError(response, http.StatusForbidden, "access to another user is forbidden")
		return
	}

	router.writeUser(response, request, userID)
}

// PostIngredients handles POST /ingredients, resolving every name to a record.
func (router *Router) PostIngredients(response http.ResponseWriter, request *http.Request) {
	var requestDTO models.IngredientRequest
	if err := json.NewDecoder(request.Body).Decode(&requestDTO); err != nil {
		writeError(response, http.StatusBadRequest, err.Error())
		return
	}
	if err := router.validate.Struct(requestDTO); err != nil {
		writeError(response, http.StatusBadRequest, "ingredientNames is required")
		return
	}

	ingredients, err := router.ingredients.GetOrAddMany(request.Context(), requestDTO.IngredientNames)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.ingredients.GetOrAddMany()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to store ingredients")
		return
	}

	writeJSON(response, http.StatusOK, ingredients)
}

// GetIngredients handles GET /ingredients.
func (router *Router) GetIngredients(response http.ResponseWriter, request *http.Request) {
	ingredients, err := router.ingredients.List(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `router.ingredients.List()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to read ingredients")
		return
	}

	writeJSON(response, http.StatusOK, ingredients)
}

// GetIngredientsid handles GET /ingredients/{id}.
func (router *Router) GetIngredientsid(response http.ResponseWriter, request *http.Request) {
	ingredientID, err := strconv.Atoi(chi.URLParam(request, "id"))
	if err != nil {
		writeError(response, http.StatusBadRequest, "ingredient id must be a number")
		return
	}

	ingredient, err := router.ingredients.GetByID(request.Context(), ingredientID)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.ingredients.GetByID()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to read the ingredient")
		return
	}
	if ingredient == nil {
		writeError(response, http.StatusNotFound, "ingredient not found")
		return
	}

	writeJSON(response, http.StatusOK, ingredient)
}

// PutRecipes handles PUT /recipes, replacing the whole collection.
func (router *Router) PutRecipes(response http.ResponseWriter, request *http.Request) {
	var recipes []models.Recipe
	if err := json.NewDecoder(request.Body).Decode(&recipes); err != nil {
		writeError(response, http.StatusBadRequest, err.Error())
		return
	}

	if err := router.recipes.Replace(request.Context(), recipes); err != nil {
		logger.Log.Debugln("Error calling the `router.recipes.Replace()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to store recipes")
		return
	}

	writeJSON(response, http.StatusOK, models.GenericResponse{Status: models.StatusOK})
}

// GetRecipes handles GET /recipes.
func (router *Router) GetRecipes(response http.ResponseWriter, request *http.Request) {
	recipes, err := router.recipes.List(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `router.recipes.List()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to read recipes")
		return
	}

	writeJSON(response, http.StatusOK, recipes)
}

// GetRecipesid handles GET /recipes/{id}.
func (router *Router) GetRecipesid(response http.ResponseWriter, request *http.Request) {
	recipe, err := router.recipes.GetByID(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		logger.Log.Debugln("Error calling the `router.recipes.GetByID()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to read the recipe")
		return
	}
	if recipe == nil {
		writeError(response, http.StatusNotFound, "recipe not found")
		return
	}

	writeJSON(response, http.StatusOK, recipe)
}

// GetPing handles GET /ping by checking the storage.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.db.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `router.db.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetInternalstats handles GET /internal/stats.
func (router *Router) GetInternalstats(response http.ResponseWriter, request *http.Request) {
	stats, err := router.db.GetStats(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `router.db.GetStats()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "unable to collect stats")
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

// New builds the chi router with all routes and middleware of the service.
func New(
	users service.UserService,
	ingredients service.IngredientService,
	recipes service.RecipeService,
	tokens tokenKeeper,
	db storageInspector,
	ipChecker trustedNetworkChecker,
	optionsProto ...InitOption,
) *chi.Mux {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	router := &Router{
		users:       users,
		ingredients: ingredients,
		recipes:     recipes,
		tokens:      tokens,
		db:          db,
		ipChecker:   ipChecker,
		validate:    validator.New(),
	}

	mux := chi.NewRouter()
	if len(options.allowedOrigins) > 0 {
		mux.Use(corsHandler(options.allowedOrigins))
	}
	mux.Use(middleware.RequestID)
	mux.Use(logger.WithLoggingHTTPMiddleware)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Compress(compressionLevel, "application/json"))

	mux.Post(`/auth/login`, router.PostAuthlogin)
	mux.Post(`/auth/signup`, router.PostAuthsignup)
	mux.Get(`/ping`, router.GetPing)
	mux.With(ipChecker.TrustedOnly).Get(`/internal/stats`, router.GetInternalstats)

	mux.Group(func(protected chi.Router) {
		protected.Use(tokens.Authenticate)

		protected.Put(`/recipes`, router.PutRecipes)
		protected.Get(`/recipes`, router.GetRecipes)
		protected.Get(`/recipes/{id}`, router.GetRecipesid)

		protected.Post(`/ingredients`, router.PostIngredients)
		protected.Get(`/ingredients`, router.GetIngredients)
		protected.Get(`/ingredients/{id}`, router.GetIngredientsid)

		protected.Get(`/users`, router.GetUsers)
		protected.Get(`/users/me`, router.GetUsersme)
		protected.Get(`/users/{id}`, router.GetUsersid)
	})

	return mux
}
