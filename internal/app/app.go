// Package app wires the dependencies and routes API Gateway requests.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/lamnt-dev/drivebox/internal/adapter"
	"github.com/lamnt-dev/drivebox/internal/adapter/googledrive"
	"github.com/lamnt-dev/drivebox/internal/adapter/memory"
	"github.com/lamnt-dev/drivebox/internal/auth"
	"github.com/lamnt-dev/drivebox/internal/cache"
	"github.com/lamnt-dev/drivebox/internal/crypto"
	"github.com/lamnt-dev/drivebox/internal/handler"
	"github.com/lamnt-dev/drivebox/internal/listing"
	"github.com/lamnt-dev/drivebox/internal/mutation"
	"github.com/lamnt-dev/drivebox/internal/notebook"
	"github.com/lamnt-dev/drivebox/internal/secret"
	"github.com/lamnt-dev/drivebox/internal/session"
)

// serviceUser is the token vault entry holding the shared drive's refresh
// token. The drive is a single shared space, not per-user.
const serviceUser = "service"

// App holds the dependencies for the Lambda function.
type App struct {
	driveHandler *handler.DriveHandler
	noteHandler  *handler.NoteHandler
	authHandler  *handler.AuthHandler
}

// NewApp initializes the application dependencies.
func NewApp(ctx context.Context) *App {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Sprintf("unable to load SDK config, %v", err))
	}
	devMode := os.Getenv("DEV_MODE") == "true"

	dynamoClient := dynamodb.NewFromConfig(cfg)

	// KMS Client
	var encryptor crypto.Encryptor
	if devMode {
		encryptor = crypto.NewMockEncryptor()
		fmt.Println("Using MockEncryptor (DEV_MODE=true)")
	} else {
		kmsKeyID := os.Getenv("KMS_KEY_ID")
		if kmsKeyID == "" {
			kmsKeyID = "alias/drivebox-token-key"
		}
		encryptor = crypto.NewKMSService(kms.NewFromConfig(cfg), kmsKeyID)
	}

	// ---------- Secret Resolver ----------
	var resolver secret.Resolver
	if devMode {
		resolver = secret.NewEnvResolver()
		fmt.Println("Using EnvResolver (DEV_MODE=true)")
	} else {
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(cfg))
	}

	googleClientSecret := resolveSecret(ctx, resolver, "GOOGLE_CLIENT_SECRET_PARAM", "/drivebox/google-client-secret", "")
	jwtSecret := resolveSecret(ctx, resolver, "JWT_SECRET_PARAM", "/drivebox/jwt-secret", "default-dev-secret")
	adminPassword := resolveSecret(ctx, resolver, "ADMIN_PASSWORD_PARAM", "/drivebox/admin-password", "")

	oauthConfig := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: googleClientSecret,
		Scopes: []string{
			"https://www.googleapis.com/auth/drive",
		},
		Endpoint: google.Endpoint,
	}

	tokensTable := os.Getenv("SERVICE_TOKENS_TABLE")
	if tokensTable == "" {
		tokensTable = "ServiceTokens"
	}
	vault := auth.NewTokenVault(oauthConfig, dynamoClient, tokensTable, encryptor)

	// Storage: shared Google Drive in production, in-memory in DEV_MODE.
	var storage adapter.Storage
	if devMode {
		storage = memory.NewMemoryStorage(os.Getenv("DRIVE_BASE_FOLDER_ID"))
		fmt.Println("Using MemoryStorage (DEV_MODE=true)")
	} else {
		var provider adapter.Provider = googledrive.NewProvider(vault)
		storage, err = provider.GetStorage(ctx, serviceUser)
		if err != nil {
			panic(fmt.Sprintf("unable to initialize drive storage, %v", err))
		}
	}

	// Invalidation cache: Redis in production, in-memory in DEV_MODE.
	var cacheStore cache.Store
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" && !devMode {
		cacheStore, err = cache.NewRedisStore(redisURL)
		if err != nil {
			panic(fmt.Sprintf("unable to connect to redis, %v", err))
		}
	} else {
		cacheStore = cache.NewMemoryStore()
		fmt.Println("Using in-memory listing cache")
	}

	// Scope locks: DynamoDB in production, in-memory in DEV_MODE.
	var locker session.Locker
	if devMode {
		locker = session.NewMemoryLocker()
	} else {
		locksTable := os.Getenv("SCOPE_LOCKS_TABLE")
		if locksTable == "" {
			locksTable = "ScopeLocks"
		}
		locker = session.NewDynamoLocker(dynamoClient, locksTable)
	}

	listings := listing.NewStore(storage, cacheStore, locker)
	coordinator := mutation.NewCoordinator(storage, cacheStore, locker, listings)
	admin := auth.NewAdmin(adminPassword, jwtSecret)

	// Notebook
	var noteRepo notebook.Repository
	if devMode {
		noteRepo = notebook.NewMemoryRepository()
	} else {
		notesTable := os.Getenv("NOTES_TABLE")
		if notesTable == "" {
			notesTable = "Notes"
		}
		noteRepo = notebook.NewDynamoRepository(dynamoClient, notesTable)
	}
	noteStore := notebook.NewStore(noteRepo)

	return &App{
		driveHandler: handler.NewDriveHandler(storage, listings, coordinator, cacheStore, admin),
		noteHandler:  handler.NewNoteHandler(noteStore, notebook.NewRenderer()),
		authHandler:  handler.NewAuthHandler(admin, vault, serviceUser),
	}
}

// resolveSecret looks up a secret by its parameter name, with an env var
// override for the parameter path and a fallback value.
func resolveSecret(ctx context.Context, resolver secret.Resolver, envVar, defaultParam, fallback string) string {
	param := os.Getenv(envVar)
	if param == "" {
		param = defaultParam
	}
	value, err := resolver.GetSecret(ctx, param)
	if err != nil {
		log.Printf("WARNING: failed to resolve %s: %v", param, err)
		return fallback
	}
	return value
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	fmt.Printf("Request: %s %s\n", method, path)

	// CORS Preflight
	if method == "OPTIONS" {
		return corsResponse(events.APIGatewayProxyResponse{StatusCode: 204}), nil
	}

	// Strip /api prefix if present (for CloudFront proxying)
	if strings.HasPrefix(path, "/api") {
		path = strings.TrimPrefix(path, "/api")
	}

	if req.PathParameters == nil {
		req.PathParameters = make(map[string]string)
	}

	// /drive
	if strings.HasPrefix(path, "/drive") {
		if path == "/drive/files" && method == "GET" {
			return corsResponse(must(app.driveHandler.ListFiles(ctx, req))), nil
		}
		if path == "/drive/info" && method == "GET" {
			return corsResponse(must(app.driveHandler.Info(ctx, req))), nil
		}
		if path == "/drive/download" && method == "GET" {
			return corsResponse(must(app.driveHandler.Download(ctx, req))), nil
		}
		if path == "/drive/folder-download" && method == "GET" {
			return corsResponse(must(app.driveHandler.FolderDownload(ctx, req))), nil
		}
		if path == "/drive/upload" && method == "POST" {
			return corsResponse(must(app.driveHandler.Upload(ctx, req))), nil
		}
		if path == "/drive/folders" && method == "POST" {
			return corsResponse(must(app.driveHandler.CreateFolder(ctx, req))), nil
		}
		if path == "/drive/delete" && method == "DELETE" {
			return corsResponse(must(app.driveHandler.Delete(ctx, req))), nil
		}
	}

	// /search
	if path == "/search" && method == "GET" {
		return corsResponse(must(app.driveHandler.Search(ctx, req))), nil
	}

	// /cache
	if path == "/cache/reload" && method == "POST" {
		return corsResponse(must(app.driveHandler.CacheReload(ctx, req))), nil
	}

	// /auth
	if path == "/auth/admin-login" && method == "POST" {
		return corsResponse(must(app.authHandler.AdminLogin(ctx, req))), nil
	}
	if path == "/auth/connect" && method == "GET" {
		return corsResponse(must(app.authHandler.Connect(ctx, req))), nil
	}
	if path == "/auth/callback" && method == "GET" {
		return corsResponse(must(app.authHandler.Callback(ctx, req))), nil
	}

	// /notes
	if strings.HasPrefix(path, "/notes") {
		if path == "/notes" && method == "GET" {
			return corsResponse(must(app.noteHandler.ListNotes(ctx, req))), nil
		}
		if path == "/notes" && method == "POST" {
			return corsResponse(must(app.noteHandler.CreateNote(ctx, req))), nil
		}
		if len(path) > len("/notes/") {
			pathParts := strings.Split(strings.Trim(path, "/"), "/")

			if method == "GET" && strings.HasSuffix(path, "/render") && len(pathParts) >= 2 {
				req.PathParameters["id"] = pathParts[len(pathParts)-2]
				return corsResponse(must(app.noteHandler.RenderNote(ctx, req))), nil
			}
			if method == "DELETE" {
				req.PathParameters["id"] = pathParts[len(pathParts)-1]
				return corsResponse(must(app.noteHandler.DeleteNote(ctx, req))), nil
			}
		}
	}

	return corsResponse(events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf("Not Found: %s %s", method, path),
	}), nil
}

// corsResponse adds CORS headers to an API Gateway response.
func corsResponse(resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Access-Control-Allow-Origin"] = os.Getenv("FRONTEND_URL")
	if resp.Headers["Access-Control-Allow-Origin"] == "" {
		resp.Headers["Access-Control-Allow-Origin"] = "http://localhost:3000"
	}
	resp.Headers["Access-Control-Allow-Credentials"] = "true"
	resp.Headers["Access-Control-Allow-Methods"] = "GET,POST,PUT,DELETE,OPTIONS,PATCH"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,Authorization,X-Confirm-Delete"
	return resp
}

// must unwraps a handler response, ignoring the error.
func must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		fmt.Printf("Handler error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Internal Server Error"}
	}
	return resp
}
