package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/codeduel-vn/codeduel/internal/app/duel"
	"github.com/codeduel-vn/codeduel/internal/app/seeder"
	"github.com/codeduel-vn/codeduel/internal/aws/storage"
	"github.com/codeduel-vn/codeduel/internal/codeforces"
	"github.com/codeduel-vn/codeduel/pkg/logging"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type server struct {
	address  string
	upgrader websocket.Upgrader

	config Config
	hub    *hub

	duelService   *duel.Service
	storageClient *storage.Client
	judgeClient   *codeforces.Client
	problemSeeder *seeder.Seeder
}

type payload struct {
	Type string            `json:"type"`
	Data map[string]string `json:"data"`
}

// judgeAdapter maps the Codeforces submission feed onto the duel package's
// judge contract.
type judgeAdapter struct {
	client *codeforces.Client
}

func (a judgeAdapter) ListRecentSubmissions(
	ctx context.Context,
	handle string,
	count int,
) ([]duel.Submission, error) {
	submissions, err := a.client.ListUserStatus(ctx, handle, count)
	if err != nil {
		return nil, err
	}
	out := make([]duel.Submission, 0, len(submissions))
	for _, sub := range submissions {
		contestId := sub.Problem.ContestId
		if contestId == 0 {
			contestId = sub.ContestId
		}
		out = append(out, duel.Submission{
			ContestId:   contestId,
			Index:       sub.Problem.Index,
			Verdict:     sub.Verdict,
			SubmittedAt: time.Unix(sub.CreationTimeSeconds, 0),
		})
	}
	return out, nil
}

func NewServer() *server {
	cfg := NewConfig()

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(cfg.AwsRegion))
	if err != nil {
		panic(err)
	}
	storageClient := storage.NewClient(
		dynamodb.NewFromConfig(awsCfg),
		storage.Config{
			MatchesTableName:  aws.String(cfg.MatchesTableName),
			ProblemsTableName: aws.String(cfg.ProblemsTableName),
			UsersTableName:    aws.String(cfg.UsersTableName),
		},
	)
	judgeClient, err := codeforces.NewClient(cfg.CodeforcesBaseUrl)
	if err != nil {
		panic(err)
	}

	h := newHub()
	srv := &server{
		address: "0.0.0.0:" + cfg.Port,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		config: cfg,
		hub:    h,
		duelService: duel.NewService(
			storageClient,
			storageClient,
			storageClient,
			judgeAdapter{client: judgeClient},
			h,
		),
		storageClient: storageClient,
		judgeClient:   judgeClient,
	}
	if cfg.ProblemSyncEnabled {
		srv.problemSeeder = seeder.New(judgeClient, storageClient, cfg.ProblemSyncInterval)
	}
	return srv
}

// Start method starts the duel server
func (s *server) Start() error {
	if s.problemSeeder != nil {
		if err := s.problemSeeder.Start(context.Background()); err != nil {
			return err
		}
		defer s.problemSeeder.Stop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/enter", s.handleEnter)
	mux.HandleFunc("POST /game/create", s.handleCreateMatch)
	mux.HandleFunc("POST /game/join", s.handleJoinMatch)
	mux.HandleFunc("POST /game/abort", s.handleAbortMatch)
	mux.HandleFunc("POST /game/verify", s.handleVerifySubmission)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	logging.Info("duel server started", zap.String("port", s.config.Port))
	return http.ListenAndServe(s.address, mux)
}

func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userId, err := s.auth(r)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(err.Error()))
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error(
			"failed to upgrade connection",
			zap.String("error", err.Error()),
		)
		return
	}
	defer ws.Close()

	conn := s.hub.register(ws)
	logging.Info("connection opened",
		zap.String("conn_id", conn.id),
		zap.String("user_id", userId),
	)

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			s.handleDisconnect(conn)
			logging.Info(
				"connection closed",
				zap.String("remote_address", ws.RemoteAddr().String()),
				zap.Error(err),
			)
			break
		}

		p := payload{}
		if err := json.Unmarshal(message, &p); err != nil {
			conn.writeJson(errorResponse{Type: "error", Error: ErrStatusInvalidPayload})
			continue
		}
		s.handleSocketMessage(r.Context(), conn, userId, p)
	}
}
