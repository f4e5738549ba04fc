package game

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ConnectionAcceptor takes ownership of an upgraded websocket and runs its
// read/write pumps until the player disconnects.
type ConnectionAcceptor interface {
	Serve(playerID string, conn *websocket.Conn)
}

// Handler exposes the HTTP surface: player registration, the listing
// projections and the websocket entry point.
type Handler struct {
	players   *PlayerDirectory
	directory *RoomDirectory
	questions QuestionSource
	acceptor  ConnectionAcceptor
	upgrader  websocket.Upgrader
}

func NewHandler(players *PlayerDirectory, directory *RoomDirectory, questions QuestionSource, acceptor ConnectionAcceptor) *Handler {
	return &Handler{
		players:   players,
		directory: directory,
		questions: questions,
		acceptor:  acceptor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.POST("/api/player", h.CreatePlayerHandler)
	r.GET("/api/game/all", h.ListGameTypesHandler)
	r.GET("/api/game/category/all", h.ListCategoriesHandler)
	r.GET("/api/room/all", h.ListRoomsHandler)
	r.GET("/game", h.ConnectHandler)
}

type createPlayerRequest struct {
	Name      string `json:"name" binding:"required"`
	AvatarURL string `json:"avatarUrl"`
}

func (h *Handler) CreatePlayerHandler(ctx *gin.Context) {
	req := createPlayerRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-player"})
		return
	}
	player := h.players.CreatePlayer(req.Name, req.AvatarURL)
	ctx.JSON(http.StatusCreated, gin.H{
		"id":        player.ID,
		"name":      player.Name,
		"avatarUrl": player.AvatarURL,
	})
}

type gameTypeDTO struct {
	GameType         string `json:"gameType"`
	MaxPlayerCount   int    `json:"maxPlayerCount"`
	RoundTimeSeconds int64  `json:"roundTimeSeconds"`
}

func (h *Handler) ListGameTypesHandler(ctx *gin.Context) {
	types := make([]gameTypeDTO, 0)
	for _, gameType := range AllGameTypes() {
		rules := RulesFor(gameType)
		types = append(types, gameTypeDTO{
			GameType:         rules.GameType(),
			MaxPlayerCount:   rules.MaxPlayerCount(),
			RoundTimeSeconds: rules.RoundTimeSeconds(),
		})
	}
	ctx.JSON(http.StatusOK, types)
}

func (h *Handler) ListCategoriesHandler(ctx *gin.Context) {
	categories, err := h.questions.Categories(ctx.Request.Context())
	if err != nil {
		slog.Error("category listing failed", "error", err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}
	ctx.JSON(http.StatusOK, categories)
}

func (h *Handler) ListRoomsHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.directory.ActiveRooms())
}

// ConnectHandler upgrades the connection and hands it to the session layer.
// The player must have been registered over POST /api/player first.
func (h *Handler) ConnectHandler(ctx *gin.Context) {
	playerID := ctx.Query("playerId")
	if playerID == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing-player-id"})
		return
	}
	if _, err := h.players.GetPlayer(playerID); err != nil {
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "player-not-found"})
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		slog.Error("WS upgrade failed", "player", playerID, "error", err)
		return
	}
	h.acceptor.Serve(playerID, conn)
}
