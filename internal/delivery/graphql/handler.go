package graphql

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/avelichko/go-taskboard/internal/pubsub"
	"github.com/avelichko/go-taskboard/internal/services"
)

type Handler interface {
	// HandleQuery executes a query or mutation document
	// POSTed to /graphql.
	HandleQuery(c *gin.Context)

	// HandleSubscription upgrades a GET to /graphql into a
	// graphql-transport-ws connection feeding the taskChanged
	// subscription.
	HandleSubscription(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	schema   graphql.Schema
	upgrader websocket.Upgrader
}

func New(
	logger zerolog.Logger,
	taskService services.TaskService,
	broker *pubsub.Broker,
) Handler {
	schema, err := newSchema(taskService, broker)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to build schema")
		panic(err)
	}

	return &handlerImpl{
		logger: logger,
		schema: schema,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{transportWSSubprotocol},
			// The demo client is served from the same process;
			// cross-origin boards are allowed on purpose.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

type queryRequest struct {
	Query         string                 `json:"query" binding:"required"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func (h *handlerImpl) HandleQuery(c *gin.Context) {
	var req queryRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        c.Request.Context(),
	})
	if result.HasErrors() {
		h.logger.Warn().
			Int("errors", len(result.Errors)).
			Str("operation", req.OperationName).
			Msg("operation finished with errors")
	}

	// Resolver failures ride in the errors array; the transport
	// itself stays 200.
	c.JSON(http.StatusOK, result)
}
